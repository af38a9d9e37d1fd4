// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package files provides primitives for enumerating and loading data from various
file or file-like Source's and for writing rendered output to filesystem files
and directories.

This allows the rest of mtpl code to process templates, data values and
function libraries without becoming entangled in the details of how to read or
write data.

mtpl processes files differently depending on their Type. For example,
File instances that are TypeTemplate are parsed as templates and rendered in
the markup format of their extension.
*/
package files
