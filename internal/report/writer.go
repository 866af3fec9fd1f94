package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RowWriter receives report rows in order.
type RowWriter interface {
	WriteRow(Row) error
}

// OutputPath returns <dir>/<ext>_<YYYY-MM-DD__HHMM>.csv and creates dir.
func OutputPath(dir, ext string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.csv", ext, now.Format("2006-01-02__1504"))
	return filepath.Join(dir, name), nil
}

// CSVWriter writes ';'-separated records terminated by CRLF. A field is
// quoted only when it contains the delimiter, a quote, CR or LF; field
// bytes, including leading spaces and embedded newlines, are written as is.
type CSVWriter struct {
	w     *bufio.Writer
	c     io.Closer
	count int
}

// NewCSVWriter writes the header for ext to w.
func NewCSVWriter(w io.Writer, ext string) (*CSVWriter, error) {
	out := &CSVWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		out.c = c
	}
	if err := out.write(Header(ext)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return out, nil
}

// CreateCSV creates the report file at path.
func CreateCSV(path, ext string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	w, err := NewCSVWriter(f, ext)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WriteRow writes one record.
func (w *CSVWriter) WriteRow(r Row) error {
	if err := w.write(r.Record()); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of rows written, excluding the header.
func (w *CSVWriter) Count() int {
	return w.count
}

// Close flushes buffered rows and closes the underlying file, if any.
func (w *CSVWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		if w.c != nil {
			w.c.Close()
		}
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}

func (w *CSVWriter) write(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.w.WriteByte(';')
		}
		if strings.ContainsAny(f, ";\"\r\n") {
			w.w.WriteByte('"')
			w.w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.w.WriteByte('"')
		} else {
			w.w.WriteString(f)
		}
	}
	_, err := w.w.WriteString("\r\n")
	return err
}
