package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Flag is a yes/no attribute of a record. It is encoded as 1 or 0 on the
// wire because the dashboard compares flags against the number 1.
type Flag bool

// MarshalJSON encodes the flag as 1 or 0.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts numbers, booleans and the strings understood by ParseFlag.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	parsed, err := ParseFlag(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFlag parses a tabular or JSON flag value. Accepted values are
// 1/0, true/false and yes/no (case-insensitive); numeric forms such as
// "1.0" produced by spreadsheet exports are accepted too.
func ParseFlag(value string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "1.0", "true", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag value %q", value)
	}
}

// String returns "1" or "0", matching the wire encoding.
func (f Flag) String() string {
	if f {
		return "1"
	}
	return "0"
}
