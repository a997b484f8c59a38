// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// formats CUE errors with JSON-path prefixes.
//
// The flow is always the same:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema string
//
//	fields, err := cueutil.DecodeMap(schema, data, "#Config", cueutil.WithFilename(path))
//	if err != nil {
//	    return err // includes the CUE path of the offending field
//	}
package cueutil
