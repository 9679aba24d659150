package enhancer

import (
	"context"
	"fmt"

	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// MotifsRequest describes one Mass2Motif overlay run.
type MotifsRequest struct {
	EdgesPath  string
	MotifsPath string
	OutputDir  string
	Options    motif.Options
}

// Validate checks paths and thresholds.
func (r MotifsRequest) Validate() error {
	if r.EdgesPath == "" || r.MotifsPath == "" {
		return errors.InvalidParam("edge table and motif table are required")
	}
	o := r.Options
	if o.MinProbability < 0 || o.MinProbability > 1 || o.MinOverlap < 0 || o.MinOverlap > 1 {
		return errors.New(errors.CodeInvalidThresholds, "thresholds must lie in [0,1]").
			WithDetail(formatThresholds(o))
	}
	if o.Top <= 0 {
		return errors.Newf(errors.CodeInvalidParam, "top must be positive, got %d", o.Top)
	}
	return nil
}

// RunMotifs maps motif assignments onto the network and writes the node and
// edge tables.
func (s *Service) RunMotifs(ctx context.Context, req MotifsRequest) (report *RunReport, err error) {
	report = s.newReport(CommandMotifs)
	log := s.logger.Named(CommandMotifs).With(logging.String("run_id", report.RunID))
	defer func() { s.finish(ctx, log, report, err) }()

	if err = req.Validate(); err != nil {
		return report, err
	}

	var (
		edges       tabular.EdgeTable
		assignments []motif.Assignment
	)
	err = s.stage(log, "load", func() error {
		var lerr error
		if edges, lerr = tabular.ReadEdges(req.EdgesPath); lerr != nil {
			return lerr
		}
		assignments, lerr = tabular.ReadMotifs(req.MotifsPath)
		return lerr
	})
	if err != nil {
		return report, err
	}

	var res motif.Result
	_ = s.stage(log, "map", func() error {
		res = motif.Map(edges.Edges, assignments, req.Options)
		return nil
	})
	log.Info("Motifs mapped",
		logging.Int("assignments", len(assignments)),
		logging.Int("motif_nodes", len(res.Nodes)),
		logging.Int("motifs", len(res.Motifs)),
		logging.Int("edges", len(res.Edges)))

	err = s.stage(log, "write", func() error {
		header, rows := tabular.MotifNodeRows(res)
		if werr := s.writeTable(report, req.OutputDir, MotifNodesFile, header, rows); werr != nil {
			return werr
		}
		header, rows = tabular.MotifEdgeRows(res)
		return s.writeTable(report, req.OutputDir, MotifEdgesFile, header, rows)
	})
	if err != nil {
		return report, err
	}

	s.countMotifs(report, edges.Edges, res)

	nodes := make([]network.NodeAttributes, len(res.Nodes))
	for i, n := range res.Nodes {
		nodes[i] = network.NodeAttributes{ID: n.Node, Attributes: n.Attributes(res.Motifs)}
	}
	out := make([]network.EdgeAttributes, len(res.Edges))
	for i, e := range res.Edges {
		out[i] = network.EdgeAttributes{Source: e.Source, Target: e.Target, Interaction: e.Interaction, Attributes: e.Attributes()}
	}
	s.exportNetwork(ctx, log, report.RunID, nodes, out)
	return report, nil
}

func (s *Service) countMotifs(report *RunReport, base []network.Edge, res motif.Result) {
	families := make(map[network.FamilyID]bool)
	virtual := 0
	for _, e := range res.Edges {
		if e.IsVirtual() {
			virtual++
			continue
		}
		if !e.Family.IsUnclustered() {
			families[e.Family] = true
		}
	}
	report.Nodes = len(res.Nodes)
	report.Edges = len(base)
	report.Families = len(families)
	report.Motifs = len(res.Motifs)

	s.metrics.NodesTotal.WithLabelValues().Set(float64(report.Nodes))
	s.metrics.EdgesTotal.WithLabelValues(motif.InteractionCosine).Set(float64(len(base)))
	s.metrics.EdgesTotal.WithLabelValues("motif").Set(float64(virtual))
	s.metrics.FamiliesTotal.WithLabelValues("component").Set(float64(report.Families))
}

func formatThresholds(o motif.Options) string {
	return fmt.Sprintf("probability=%g overlap=%g", o.MinProbability, o.MinOverlap)
}
