// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"fmt"

	"carvel.dev/mtpl/pkg/cmd/ui"
	"carvel.dev/mtpl/pkg/files"
	"github.com/spf13/cobra"
)

type BulkFilesSourceOpts struct {
	bulkIn  string
	bulkOut bool
}

func (s *BulkFilesSourceOpts) Set(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.bulkIn, "bulk-in", "", "Accept files in bulk format")
	cmd.Flags().BoolVar(&s.bulkOut, "bulk-out", false, "Output files in bulk format")
}

type BulkFilesSource struct {
	opts BulkFilesSourceOpts
	ui   ui.UI
}

// BulkFiles is the JSON exchange format of --bulk-in/--bulk-out and
// the website render endpoint.
type BulkFiles struct {
	Files  []BulkFile `json:"files,omitempty"`
	Errors string     `json:"errors,omitempty"`
}

type BulkFile struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

func NewBulkFilesSource(opts BulkFilesSourceOpts, ui ui.UI) *BulkFilesSource {
	return &BulkFilesSource{opts, ui}
}

func (s *BulkFilesSource) HasInput() bool  { return len(s.opts.bulkIn) > 0 }
func (s *BulkFilesSource) HasOutput() bool { return s.opts.bulkOut }

func (s BulkFilesSource) Input() (RenderInput, error) {
	return NewBulkInput([]byte(s.opts.bulkIn))
}

// NewBulkInput decodes files in bulk format. Names must be unique
// relative paths.
func NewBulkInput(data []byte) (RenderInput, error) {
	var bulk BulkFiles
	if err := json.Unmarshal(data, &bulk); err != nil {
		return RenderInput{}, fmt.Errorf("Unmarshaling bulk files: %s", err)
	}

	in := RenderInput{Files: make([]*files.File, 0, len(bulk.Files))}
	for i, f := range bulk.Files {
		if len(f.Name) == 0 {
			return RenderInput{}, fmt.Errorf("Expected bulk file %d to have a name", i)
		}
		file, err := files.NewFileFromSource(files.NewBytesSource(f.Name, []byte(f.Data)))
		if err != nil {
			return RenderInput{}, err
		}
		in.Files = append(in.Files, file)
	}
	return in, nil
}

func (s *BulkFilesSource) Output(out RenderOutput) error {
	resultBytes, err := out.AsBulkBytes()
	if err != nil {
		return err
	}

	s.ui.Debugf("### result\n")
	s.ui.Printf("%s", resultBytes)

	return nil
}

// AsBulkBytes encodes output files and the error (if any) in bulk format.
func (o RenderOutput) AsBulkBytes() ([]byte, error) {
	bulk := BulkFiles{Files: make([]BulkFile, 0, len(o.Files))}
	if o.Err != nil {
		bulk.Errors = o.Err.Error()
	}
	for _, file := range o.Files {
		bulk.Files = append(bulk.Files, BulkFile{Name: file.RelativePath(), Data: string(file.Bytes())})
	}
	return json.Marshal(bulk)
}
