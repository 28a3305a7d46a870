// Package jsonutil wraps encoding/json for the CLI's import and streaming
// output: errors carry the caller's context, and values encode as single lines.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalStrict unmarshals exactly one JSON value into v, rejecting
// unknown fields, and wraps any error with the provided context message.
func UnmarshalStrict(data []byte, v interface{}, context string) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	if dec.More() {
		return fmt.Errorf("%s: trailing data after JSON value", context)
	}
	return nil
}

// MarshalLine encodes v as a single JSON line without the trailing newline.
func MarshalLine(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
