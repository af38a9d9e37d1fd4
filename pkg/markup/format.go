// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package markup holds the escaping dialects of the output formats.
// Text content and attribute values are escaped by separate functions
// and the two must never be used interchangeably.
package markup

import (
	"fmt"
	"sort"
	"strings"
)

type Format interface {
	Name() string
	// EscapeText escapes a value written as element/text content
	EscapeText(string) string
	// EscapeAttr escapes a value written inside a quoted attribute
	EscapeAttr(string) string
}

const (
	HTMLName = "html"
	XMLName  = "xml"
	TextName = "text"
)

var (
	HTML Format = escaper{
		name: HTMLName,
		text: strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;"),
		attr: strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;"),
	}
	XML Format = escaper{
		name: XMLName,
		text: strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;"),
		attr: strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
			"\t", "&#9;", "\n", "&#10;", "\r", "&#13;"),
	}
	Text Format = plain{}
)

var formats = map[string]Format{
	HTMLName: HTML,
	XMLName:  XML,
	TextName: Text,
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	if format, found := formats[name]; found {
		return format, nil
	}
	return nil, fmt.Errorf("Unknown output format '%s' (known formats: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the registered format names sorted.
func Names() []string {
	var names []string
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromExtension picks the format for a template file name,
// e.g. "page.html" or "feed.xml.tpl". Defaults to text.
func FromExtension(path string) Format {
	path = strings.TrimSuffix(path, ".tpl")
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		ext := strings.ToLower(path[idx+1:])
		for name, exts := range extensions {
			for _, candidate := range exts {
				if ext == candidate {
					return formats[name]
				}
			}
		}
	}
	return Text
}

var extensions = map[string][]string{
	HTMLName: {"html", "htm"},
	XMLName:  {"xml", "svg"},
	TextName: {"txt"},
}

// Extensions lists file extensions (without dot) of the named format.
func Extensions(name string) []string { return extensions[name] }

type escaper struct {
	name string
	text *strings.Replacer
	attr *strings.Replacer
}

func (e escaper) Name() string               { return e.name }
func (e escaper) EscapeText(s string) string { return e.text.Replace(s) }
func (e escaper) EscapeAttr(s string) string { return e.attr.Replace(s) }

type plain struct{}

func (plain) Name() string               { return TextName }
func (plain) EscapeText(s string) string { return s }
func (plain) EscapeAttr(s string) string { return s }
