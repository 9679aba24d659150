// Package tabular reads the GNPS, MS2LDA and ClassyFire tables MolNetEnhancer
// consumes and writes its result tables.  Tab- and comma-separated files are
// both accepted; the delimiter follows the file extension and falls back to
// sniffing the header line.
package tabular

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/annotation"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Delimiters
// ─────────────────────────────────────────────────────────────────────────────

// DelimiterFor returns the field delimiter implied by path's extension, or 0
// when the extension does not decide it.
func DelimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		return '\t'
	case ".csv":
		return ','
	default:
		return 0
	}
}

// sniff picks tab when the header line holds more tabs than commas.
func sniff(header string) rune {
	if strings.Count(header, "\t") >= strings.Count(header, ",") && strings.Contains(header, "\t") {
		return '\t'
	}
	return ','
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic tables
// ─────────────────────────────────────────────────────────────────────────────

// ReadTable loads a delimited file into an annotation.Table named after the
// file.
func ReadTable(path string) (annotation.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return annotation.Table{}, errors.Wrap(err, errors.CodeNotFound, "failed to open table").WithDetail(path)
	}
	defer f.Close()
	return ParseTable(filepath.Base(path), f, DelimiterFor(path))
}

// ParseTable reads a delimited table from r.  A zero delim is sniffed from
// the header line.  Rows may be shorter or longer than the header.
func ParseTable(name string, r io.Reader, delim rune) (annotation.Table, error) {
	br := bufio.NewReader(r)
	if delim == 0 {
		line, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return annotation.Table{}, errors.Wrap(err, errors.CodeTableParseFailed, "failed to read table header").WithDetail(name)
		}
		first := string(line)
		if i := strings.IndexByte(first, '\n'); i >= 0 {
			first = first[:i]
		}
		delim = sniff(first)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return annotation.Table{}, errors.Wrap(err, errors.CodeTableParseFailed, "malformed table").WithDetail(name)
	}
	if len(records) == 0 {
		return annotation.Table{}, errors.New(errors.CodeTableParseFailed, "table has no header").WithDetail(name)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return annotation.Table{Name: name, Header: header, Records: records[1:]}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Column access
// ─────────────────────────────────────────────────────────────────────────────

// columns indexes a table header by name.
type columns struct {
	table string
	index map[string]int
}

func indexColumns(t annotation.Table) columns {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return columns{table: t.Name, index: idx}
}

// find returns the index of the first present name.
func (c columns) find(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := c.index[n]; ok {
			return i, true
		}
	}
	return -1, false
}

// require is find that fails with CodeTableMissingColumn.
func (c columns) require(names ...string) (int, error) {
	if i, ok := c.find(names...); ok {
		return i, nil
	}
	return -1, errors.New(errors.CodeTableMissingColumn, "required column missing").
		WithDetail(c.table + ": " + strings.Join(names, "|"))
}

// cell returns the trimmed value of column i, or "" when the record is short
// or i is negative.
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
