package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

// IOError reports a failure to produce the output file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Writer writes the CSV export. The file is staged next to its final path
// and renamed, so readers never see a partial export.
type Writer struct {
	fs         afero.Fs
	path       string
	tempSuffix string
}

// NewWriter writes to path on fs.
func NewWriter(fs afero.Fs, path, tempSuffix string) *Writer {
	if tempSuffix == "" {
		tempSuffix = ".tmp"
	}
	return &Writer{fs: fs, path: path, tempSuffix: tempSuffix}
}

// Path is the final output path.
func (w *Writer) Path() string { return w.path }

// Encode renders header and rows as CSV. Every record must carry header.
func Encode(header []string, records []Record) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for i, r := range records {
		if !slices.Equal(r.Header(), header) {
			return nil, fmt.Errorf("record %d has fields %v, want %v", i, r.Header(), header)
		}
		if err := cw.Write(r.Values()); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces the output file with header and records. The header of an
// empty export is still written.
func (w *Writer) Write(header []string, records []Record) (int, error) {
	data, err := Encode(header, records)
	if err != nil {
		return 0, &IOError{Path: w.path, Op: "encode", Err: err}
	}

	if dir := filepath.Dir(w.path); dir != "." && dir != "" {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return 0, &IOError{Path: dir, Op: "mkdir", Err: err}
		}
	}

	tmp := w.path + w.tempSuffix
	if err := afero.WriteFile(w.fs, tmp, data, 0o644); err != nil {
		_ = w.fs.Remove(tmp)
		return 0, &IOError{Path: tmp, Op: "write", Err: err}
	}
	if err := w.fs.Rename(tmp, w.path); err != nil {
		_ = w.fs.Remove(tmp)
		return 0, &IOError{Path: w.path, Op: "rename", Err: err}
	}
	return len(data), nil
}
