package classification

import (
	"context"
	"strconv"
	"strings"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/classyfire"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
)

// ClassifyStructures submits structure strings (SMILES or InChI) as batched
// ClassyFire queries and waits for the results.  The returned records follow
// the order of the distinct non-blank inputs; structures the service could
// not classify get an all-None record with an empty identity key.
func (s *Service) ClassifyStructures(ctx context.Context, structures []string) ([]ontology.StructureRecord, error) {
	inputs := uniqueStructures(structures)
	if len(inputs) == 0 {
		return nil, nil
	}

	type query struct {
		id    int64
		start int
		size  int
	}
	var queries []query
	for start := 0; start < len(inputs); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(inputs) {
			end = len(inputs)
		}
		id, err := s.client.SubmitStructureQuery(ctx, strings.Join(inputs[start:end], "\n"), s.label)
		if err != nil {
			return nil, err
		}
		queries = append(queries, query{id: id, start: start, size: end - start})
	}
	s.logger.Info("ClassyFire queries submitted", logging.Int("queries", len(queries)), logging.Int("structures", len(inputs)))

	out := make([]ontology.StructureRecord, len(inputs))
	filled := make([]bool, len(inputs))
	for _, q := range queries {
		res, err := s.client.GetResults(ctx, q.id, true)
		if err != nil {
			return nil, err
		}
		for _, e := range res.Entities {
			line, ok := entityLine(e.Identifier)
			if !ok || line < 1 || line > q.size {
				continue
			}
			i := q.start + line - 1
			rec := e.Record()
			rec.SMILES = inputs[i]
			out[i], filled[i] = rec, true

			if s.cache != nil && rec.InChIKey != "" && rec.InChIKey != ontology.Unclassified && !e.Empty() {
				if err := s.cache.Put(ctx, ontology.NewClassified(rec.InChIKey, rec)); err != nil {
					s.logger.Warn("Classification cache write failed", logging.String("key", rec.InChIKey), logging.Err(err))
				}
			}
		}
	}
	for i, ok := range filled {
		if !ok {
			out[i] = ontology.UnclassifiedRecord(inputs[i], "")
		}
	}
	return out, nil
}

// entityLine extracts the 1-based input line from an identifier such as
// "Q3001-7".
func entityLine(identifier string) (int, bool) {
	i := strings.LastIndex(identifier, "-")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(identifier[i+1:])
	return n, err == nil
}

func uniqueStructures(structures []string) []string {
	seen := make(map[string]bool, len(structures))
	out := make([]string, 0, len(structures))
	for _, s := range structures {
		s = strings.TrimSpace(s)
		if s == "" || s == ontology.Unclassified || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// NormalizeKeys applies classyfire.NormalizeKey to every value of m.
func NormalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = classyfire.NormalizeKey(v)
	}
	return out
}
