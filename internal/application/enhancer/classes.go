package enhancer

import (
	"context"
	"sort"

	"github.com/turtacn/MolNetEnhancer/internal/application/classification"
	"github.com/turtacn/MolNetEnhancer/internal/domain/annotation"
	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// ClassesRequest describes one family classification run.
type ClassesRequest struct {
	// NodesPath is the GNPS node table (cluster index, componentindex).
	NodesPath string
	// AnnotationPaths are the structure annotation tables to consolidate.
	AnnotationPaths []string
	// EdgesPath is optional; when set the network export carries edges.
	EdgesPath string

	// ClassyTablePath is a precomputed ClassyFire table.  When set no
	// lookups are made.
	ClassyTablePath string
	// StructureMapPath maps SMILES to identity keys; keys are then resolved
	// through the classifier.  Ignored when ClassyTablePath is set.
	StructureMapPath string

	OutputDir string
}

// Validate checks the request before any file is read.
func (r ClassesRequest) Validate() error {
	if r.NodesPath == "" {
		return errors.InvalidParam("node table is required")
	}
	if len(r.AnnotationPaths) == 0 {
		return errors.InvalidParam("at least one annotation table is required")
	}
	return nil
}

func (r ClassesRequest) needsClassifier() bool { return r.ClassyTablePath == "" }

// RunClasses consolidates structure annotations, classifies them and writes
// the per-node family class summary.
func (s *Service) RunClasses(ctx context.Context, req ClassesRequest) (report *RunReport, err error) {
	report = s.newReport(CommandClasses)
	log := s.logger.Named(CommandClasses).With(logging.String("run_id", report.RunID))
	defer func() { s.finish(ctx, log, report, err) }()

	if err = req.Validate(); err != nil {
		return report, err
	}
	if req.needsClassifier() && s.classifier == nil {
		err = errors.InvalidParam("no classifier configured and no ClassyFire table given")
		return report, err
	}

	var (
		rows          []network.NodeRow
		consolidation *annotation.Consolidation
		edges         tabular.EdgeTable
	)
	err = s.stage(log, "load", func() error {
		var lerr error
		if rows, lerr = tabular.ReadNodes(req.NodesPath); lerr != nil {
			return lerr
		}
		tables := make([]annotation.Table, 0, len(req.AnnotationPaths))
		for _, p := range req.AnnotationPaths {
			t, terr := tabular.ReadTable(p)
			if terr != nil {
				return terr
			}
			tables = append(tables, t)
		}
		if consolidation, lerr = annotation.Consolidate(tables...); lerr != nil {
			return lerr
		}
		if req.EdgesPath != "" {
			edges, lerr = tabular.ReadEdges(req.EdgesPath)
		}
		return lerr
	})
	if err != nil {
		return report, err
	}
	log.Info("Annotations consolidated",
		logging.Int("nodes", len(rows)),
		logging.Int("annotated_nodes", len(consolidation.PerNode)),
		logging.Int("structures", len(consolidation.Unique)))

	var (
		records     []ontology.StructureRecord
		smilesToKey map[string]string
		fetched     bool
	)
	err = s.stage(log, "classify", func() error {
		var cerr error
		records, smilesToKey, fetched, cerr = s.classify(ctx, req, consolidation, report)
		return cerr
	})
	if err != nil {
		return report, err
	}

	var summary []ontology.SummaryRow
	_ = s.stage(log, "aggregate", func() error {
		perNode := annotation.RemapToInChIKeys(consolidation.PerNode, smilesToKey)
		summary = ontology.Aggregate(rows, ontology.BuildLookups(records), perNode)
		return nil
	})

	err = s.stage(log, "write", func() error {
		header, out := tabular.SummaryRows(summary)
		if werr := s.writeTable(report, req.OutputDir, ClassSummaryFile, header, out); werr != nil {
			return werr
		}
		if fetched {
			header, out = tabular.ClassyRows(records)
			return s.writeTable(report, req.OutputDir, ClassyTableFile, header, out)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	s.countSummary(report, summary, edges.Edges)

	nodes := make([]network.NodeAttributes, len(summary))
	for i, r := range summary {
		nodes[i] = network.NodeAttributes{ID: r.Node, Attributes: r.Attributes()}
	}
	s.exportNetwork(ctx, log, report.RunID, nodes, similarityEdges(edges.Edges))
	return report, nil
}

// classify produces the structure records and the SMILES to identity key
// mapping from whichever source the request names.  fetched reports whether
// the records came from the classifier.
func (s *Service) classify(ctx context.Context, req ClassesRequest, c *annotation.Consolidation, report *RunReport) (records []ontology.StructureRecord, smilesToKey map[string]string, fetched bool, err error) {
	switch {
	case req.ClassyTablePath != "":
		records, err = tabular.ReadClassyTable(req.ClassyTablePath)
		if err != nil {
			return nil, nil, false, err
		}
		report.Lookups = recordStats(records)
		return records, tabular.StructureMap(records), false, nil

	case req.StructureMapPath != "":
		raw, rerr := tabular.ReadStructureMap(req.StructureMapPath)
		if rerr != nil {
			return nil, nil, false, rerr
		}
		smilesToKey = classification.NormalizeKeys(raw)
		keys := make([]string, 0, len(c.Unique))
		for _, smiles := range c.Unique {
			if k, ok := smilesToKey[smiles]; ok {
				keys = append(keys, k)
			}
		}
		results, lerr := s.classifier.ResolveAll(ctx, keys)
		if lerr != nil {
			return nil, nil, false, lerr
		}
		sum := classification.Summarize(results)
		report.Lookups = LookupStats{Classified: sum.Classified, Unclassified: sum.Unclassified, LookupFailed: sum.LookupFailed}
		records = withSMILES(classification.ClassyTable(results), smilesToKey)
		return records, smilesToKey, true, nil

	default:
		records, err = s.classifier.ClassifyStructures(ctx, c.Unique)
		if err != nil {
			return nil, nil, false, err
		}
		report.Lookups = recordStats(records)
		return records, tabular.StructureMap(records), true, nil
	}
}

// withSMILES fills the SMILES column of key-only records from the mapping,
// choosing the smallest SMILES when several share a key.
func withSMILES(records []ontology.StructureRecord, smilesToKey map[string]string) []ontology.StructureRecord {
	byKey := make(map[string][]string, len(smilesToKey))
	for smiles, key := range smilesToKey {
		byKey[key] = append(byKey[key], smiles)
	}
	out := make([]ontology.StructureRecord, len(records))
	for i, r := range records {
		if candidates := byKey[r.InChIKey]; len(candidates) > 0 {
			sort.Strings(candidates)
			r.SMILES = candidates[0]
		}
		out[i] = r
	}
	return out
}

func recordStats(records []ontology.StructureRecord) LookupStats {
	var st LookupStats
	for _, r := range records {
		if isClassified(r) {
			st.Classified++
		} else {
			st.Unclassified++
		}
	}
	return st
}

func isClassified(r ontology.StructureRecord) bool {
	for _, l := range ontology.AllLevels {
		if r.IsClassified(l) {
			return true
		}
	}
	return false
}

func (s *Service) countSummary(report *RunReport, summary []ontology.SummaryRow, edges []network.Edge) {
	families := make(map[network.FamilyID]bool)
	singletons := 0
	for _, r := range summary {
		if families[r.Family] {
			continue
		}
		families[r.Family] = true
		if r.Family.IsSingleton() {
			singletons++
		}
	}
	report.Nodes = len(summary)
	report.Edges = len(edges)
	report.Families = len(families)
	report.Singletons = singletons

	s.metrics.NodesTotal.WithLabelValues().Set(float64(report.Nodes))
	s.metrics.EdgesTotal.WithLabelValues(motif.InteractionCosine).Set(float64(report.Edges))
	s.metrics.FamiliesTotal.WithLabelValues("component").Set(float64(report.Families - singletons))
	s.metrics.FamiliesTotal.WithLabelValues("singleton").Set(float64(singletons))
}

func similarityEdges(edges []network.Edge) []network.EdgeAttributes {
	out := make([]network.EdgeAttributes, len(edges))
	for i, e := range edges {
		attrs := map[string]interface{}{
			"DeltaMZ":        e.DeltaMZ,
			"MEH":            e.MEH,
			"Cosine":         e.Cosine,
			"OtherScore":     e.OtherScore,
			"ComponentIndex": string(e.Family),
		}
		if e.HasAnnotation {
			attrs["EdgeAnnotation"] = e.Annotation
		}
		out[i] = network.EdgeAttributes{Source: e.Source, Target: e.Target, Interaction: motif.InteractionCosine, Attributes: attrs}
	}
	return out
}
