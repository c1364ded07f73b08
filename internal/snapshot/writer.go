package snapshot

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/parquet-go/parquet-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Path returns where table t lands in dir for format.
func Path[T any](dir string, format Format, t Table[T]) string {
	return filepath.Join(dir, t.Name+format.Ext())
}

// Write writes rows as table t into dir and returns the file path. The
// directory is created if needed.
func Write[T any](dir string, format Format, t Table[T], rows []T) (string, error) {
	var encode func(io.Writer) error
	switch format {
	case CSV:
		encode = func(w io.Writer) error { return writeCSV(w, t, rows) }
	case JSON:
		encode = func(w io.Writer) error { return writeJSON(w, rows) }
	case Parquet:
		encode = func(w io.Writer) error { return writeParquet(w, rows) }
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	path := Path(dir, format, t)
	if err := writeAtomic(path, encode); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriteJSON writes v as an indented JSON document at path.
func WriteJSON(path string, v any) error {
	return writeAtomic(path, func(w io.Writer) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	})
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := encode(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeCSV[T any](w io.Writer, t Table[T], rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(t.Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON[T any](w io.Writer, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	return json.NewEncoder(w).Encode(rows)
}

func writeParquet[T any](w io.Writer, rows []T) error {
	pw := parquet.NewGenericWriter[T](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}
