// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a string-keyed map implementation where the order
of keys is maintained (unlike the native Go map).

Structured template values (structured invocation parameters, model data loaded
from YAML or TOML) are represented with this map so that iterating over them
is deterministic and rendering output stays stable.
*/
package orderedmap
