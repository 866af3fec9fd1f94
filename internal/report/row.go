// Package report turns scanned files into report rows and writes them out.
package report

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"filereport/internal/xmlmeta"
)

// DateLayout is the layout of the file_date column.
const DateLayout = "2006-01-02"

var (
	baseColumns = []string{"acron", "path", "vol_num", "file_name", "file_date", "file_size"}
	xmlColumns  = []string{"xml_content_size", "doctype", "doi"}
)

// Header returns the column names of a report for ext.
func Header(ext string) []string {
	cols := append([]string(nil), baseColumns...)
	if ext == "xml" {
		cols = append(cols, xmlColumns...)
	}
	return cols
}

// Row is one reported file.
type Row struct {
	Acron   string
	Dir     string // containing directory, with trailing slash
	Volume  string
	Name    string
	ModTime time.Time
	Size    int64

	// XML is nil for PDF reports and for XML files that failed to parse;
	// in both cases only the base columns are written.
	XML *xmlmeta.Metrics
}

// Date returns the modification date as written to the report.
func (r Row) Date() string {
	return r.ModTime.Local().Format(DateLayout)
}

// Record renders the row as CSV fields.
func (r Row) Record() []string {
	rec := []string{
		r.Acron,
		r.Dir,
		r.Volume,
		r.Name,
		r.Date(),
		strconv.FormatInt(r.Size, 10),
	}
	if r.XML != nil {
		rec = append(rec, r.XML.Fields()...)
	}
	return rec
}

// splitRel derives the path columns of a root-relative file path. Volume is
// the second component when the path is at least acron/volume/file deep.
func splitRel(root, rel string) (dir, volume, name string) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 3 {
		volume = parts[1]
	}
	name = parts[len(parts)-1]
	dir = root
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	dir += filepath.ToSlash(filepath.Dir(rel)) + "/"
	return dir, volume, name
}
