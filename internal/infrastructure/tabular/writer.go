package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// AnnotatedSuffix is inserted before the extension when an output would
// overwrite an existing file.
const AnnotatedSuffix = "_annotated"

// WriteOptions controls how result tables are written.
type WriteOptions struct {
	// Delimiter overrides the delimiter implied by the extension.  Tab is
	// used when neither decides.
	Delimiter rune
	// Overwrite replaces an existing file instead of choosing a fresh name.
	Overwrite bool
}

// PreventOverwrite returns path, or a variant with AnnotatedSuffix inserted
// before the extension (repeatedly) until no file exists at it.
func PreventOverwrite(path string) string {
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		dir, base := filepath.Split(path)
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			base = base[:i] + AnnotatedSuffix + base[i:]
		} else {
			base += AnnotatedSuffix
		}
		path = dir + base
	}
}

// Write writes header and rows to w.
func Write(w io.Writer, delim rune, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeTableWriteFailed, "failed to write header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, errors.CodeTableWriteFailed, "failed to write rows")
	}
	return nil
}

// WriteFile writes a table to path and returns the path actually written.
func WriteFile(path string, header []string, rows [][]string, opts WriteOptions) (string, error) {
	if !opts.Overwrite {
		path = PreventOverwrite(path)
	}
	delim := opts.Delimiter
	if delim == 0 {
		if delim = DelimiterFor(path); delim == 0 {
			delim = '\t'
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeTableWriteFailed, "failed to create output").WithDetail(path)
	}
	if err := Write(f, delim, header, rows); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, errors.CodeTableWriteFailed, "failed to close output").WithDetail(path)
	}
	return path, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Result tables
// ─────────────────────────────────────────────────────────────────────────────

// SummaryRows renders the family class summary.
func SummaryRows(rows []ontology.SummaryRow) (header []string, out [][]string) {
	out = make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return ontology.SummaryColumns(), out
}

// MotifNodeRows renders the per-node motif table.
func MotifNodeRows(res motif.Result) (header []string, out [][]string) {
	out = make([][]string, len(res.Nodes))
	for i, n := range res.Nodes {
		out[i] = n.Values(res.Motifs)
	}
	return motif.NodeColumns(res.Motifs), out
}

// MotifEdgeRows renders the motif-expanded edge table.
func MotifEdgeRows(res motif.Result) (header []string, out [][]string) {
	out = make([][]string, len(res.Edges))
	for i, e := range res.Edges {
		out[i] = e.Values(res.HasAnnotation)
	}
	return motif.EdgeColumns(res.HasAnnotation), out
}

// ClassyRows renders structure records as a ClassyFire structure table.
func ClassyRows(records []ontology.StructureRecord) (header []string, out [][]string) {
	out = make([][]string, len(records))
	for i, r := range records {
		row := make([]string, 0, len(ClassyColumns))
		row = append(row, r.SMILES, r.InChIKey)
		for _, l := range ontology.AllLevels {
			row = append(row, r.Class(l))
		}
		out[i] = row
	}
	return ClassyColumns, out
}
