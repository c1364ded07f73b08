// Package snapshot writes derived tables to disk as CSV, JSON or Parquet.
// Every file is written to a temporary sibling and renamed into place, so a
// reader never sees a partial table.
package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output file format.
type Format string

const (
	CSV     Format = "csv"
	JSON    Format = "json"
	Parquet Format = "parquet"
)

// ErrUnknownFormat is returned for a format name that is not supported.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// ParseFormat reads a format name; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, JSON, Parquet:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext is the file extension of the format, with the dot.
func (f Format) Ext() string { return "." + string(f) }
