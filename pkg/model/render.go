// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"strconv"
	"strings"

	"carvel.dev/mtpl/pkg/orderedmap"
)

// ToString renders a value as output text. Lists render as the
// concatenation of their items; maps cannot be rendered.
func ToString(val interface{}) (string, error) {
	switch typedVal := val.(type) {
	case nil:
		return "", nil
	case bool:
		return strconv.FormatBool(typedVal), nil
	case string:
		return typedVal, nil
	case int64:
		return strconv.FormatInt(typedVal, 10), nil
	case float64:
		return strconv.FormatFloat(typedVal, 'g', -1, 64), nil
	case []interface{}:
		var sb strings.Builder
		for _, item := range typedVal {
			str, err := ToString(item)
			if err != nil {
				return "", err
			}
			sb.WriteString(str)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("Expected value to be renderable as text, but was %s", TypeName(val))
	}
}

// Equal compares values structurally. Numbers compare by numeric value
// regardless of int/float representation; no other coercion happens.
func Equal(a, b interface{}) bool {
	if cmp, isNum := compareNumbers(a, b); isNum {
		return cmp == 0
	}
	if _, aIsNum := asFloat(a); aIsNum {
		return false
	}

	switch typedA := a.(type) {
	case nil:
		return b == nil
	case bool:
		typedB, ok := b.(bool)
		return ok && typedA == typedB
	case string:
		typedB, ok := b.(string)
		return ok && typedA == typedB
	case []interface{}:
		typedB, ok := b.([]interface{})
		if !ok || len(typedA) != len(typedB) {
			return false
		}
		for i := range typedA {
			if !Equal(typedA[i], typedB[i]) {
				return false
			}
		}
		return true
	case *orderedmap.Map:
		typedB, ok := b.(*orderedmap.Map)
		if !ok || typedA.Len() != typedB.Len() {
			return false
		}
		equal := true
		typedA.Iterate(func(k string, v interface{}) {
			otherV, found := typedB.Get(k)
			if !found || !Equal(v, otherV) {
				equal = false
			}
		})
		return equal
	default:
		return false
	}
}

// Compare orders two numbers or two strings. Any other combination is
// an error.
func Compare(a, b interface{}) (int, error) {
	if cmp, isNum := compareNumbers(a, b); isNum {
		return cmp, nil
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}
	return 0, fmt.Errorf("Cannot compare %s with %s", TypeName(a), TypeName(b))
}

// compareNumbers orders two numbers. Two ints compare exactly; only a
// mix of int and float is compared as floats.
func compareNumbers(a, b interface{}) (int, bool) {
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if !aIsNum || !bIsNum {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func asFloat(val interface{}) (float64, bool) {
	switch typedVal := val.(type) {
	case int64:
		return float64(typedVal), true
	case float64:
		return typedVal, true
	default:
		return 0, false
	}
}
