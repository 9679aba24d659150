// Package enhancer runs the two MolNetEnhancer pipelines over GNPS exports:
// family-level chemical class summaries ("classes") and Mass2Motif network
// overlays ("motifs").  Results are written as tables and optionally pushed
// to the configured sinks.
package enhancer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
)

// Command names used in reports, events and metrics.
const (
	CommandClasses = "classes"
	CommandMotifs  = "motifs"
)

// Output file names.
const (
	ClassSummaryFile = "ClassyFireResults_Network.txt"
	ClassyTableFile  = "ClassyFireResults.txt"
	MotifNodesFile   = "Mass2Motifs_Nodes.tsv"
	MotifEdgesFile   = "Mass2Motifs_Edges.tsv"
)

// Classifier resolves structures to classifications.
type Classifier interface {
	ResolveAll(ctx context.Context, keys []string) ([]ontology.Classification, error)
	ClassifyStructures(ctx context.Context, structures []string) ([]ontology.StructureRecord, error)
}

// ArtifactStore uploads the output files of a run.
type ArtifactStore interface {
	UploadRun(ctx context.Context, runID, command string, localPaths []string) ([]*minio.Artifact, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishRun(ctx context.Context, payload kafka.RunCompletedPayload) error
}

// Sinks are the optional destinations of a run besides the local tables.
// A nil sink is skipped.
type Sinks struct {
	Network   network.Repository
	Artifacts ArtifactStore
	Events    EventPublisher
}

// Service runs the pipelines.
type Service struct {
	classifier Classifier
	sinks      Sinks
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	write      tabular.WriteOptions
	now        func() time.Time
	newRunID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier sets the classifier.  Without one, the classes pipeline
// only works from a precomputed ClassyFire table.
func WithClassifier(c Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithSinks(sinks Sinks) Option {
	return func(s *Service) { s.sinks = sinks }
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithWriteOptions controls how output tables are written.
func WithWriteOptions(opts tabular.WriteOptions) Option {
	return func(s *Service) { s.write = opts }
}

// NewService creates a Service.
func NewService(logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		logger:   logger,
		metrics:  prometheus.NewNopMetrics(),
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID      string
	Command    string
	Nodes      int
	Edges      int
	Families   int
	Singletons int
	Motifs     int
	Lookups    LookupStats
	// Outputs maps each output name to the path actually written.
	Outputs    map[string]string
	Artifacts  []*minio.Artifact
	StartedAt  time.Time
	FinishedAt time.Time
}

// LookupStats counts classification outcomes.
type LookupStats struct {
	Classified   int
	Unclassified int
	LookupFailed int
}

// Duration is the wall time of the run.
func (r *RunReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// OutputPaths returns the written paths in a stable order.
func (r *RunReport) OutputPaths() []string {
	var out []string
	for _, name := range []string{ClassSummaryFile, ClassyTableFile, MotifNodesFile, MotifEdgesFile} {
		if p, ok := r.Outputs[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) newReport(command string) *RunReport {
	return &RunReport{
		RunID:     s.newRunID(),
		Command:   command,
		Outputs:   make(map[string]string),
		StartedAt: s.now(),
	}
}

// stage times fn under the given stage label.
func (s *Service) stage(log logging.Logger, name string, fn func() error) error {
	start := s.now()
	err := fn()
	elapsed := s.now().Sub(start)
	prometheus.RecordStage(s.metrics, name, elapsed)
	if err != nil {
		prometheus.RecordError(s.metrics, name, err)
		log.Error("Stage failed", logging.String("stage", name), logging.Err(err))
		return err
	}
	log.Debug("Stage finished", logging.String("stage", name), logging.Duration("elapsed", elapsed))
	return nil
}

func (s *Service) writeTable(report *RunReport, dir, name string, header []string, rows [][]string) error {
	path, err := tabular.WriteFile(filepath.Join(dir, name), header, rows, s.write)
	if err != nil {
		return err
	}
	report.Outputs[name] = path
	return nil
}

// finish runs the sinks that act on a completed run and records the outcome.
// Sink failures are logged and counted; they never change the run result.
func (s *Service) finish(ctx context.Context, log logging.Logger, report *RunReport, runErr error) {
	report.FinishedAt = s.now()
	prometheus.RecordRun(s.metrics, report.Command, runErr)

	if runErr == nil && s.sinks.Artifacts != nil && len(report.Outputs) > 0 {
		artifacts, err := s.sinks.Artifacts.UploadRun(ctx, report.RunID, report.Command, report.OutputPaths())
		report.Artifacts = artifacts
		prometheus.RecordArtifact(s.metrics, "minio", err)
		if err != nil {
			log.Warn("Artifact upload failed", logging.Err(err))
		}
	}

	if s.sinks.Events != nil {
		payload := kafka.RunCompletedPayload{
			RunID:        report.RunID,
			Command:      report.Command,
			Nodes:        report.Nodes,
			Edges:        report.Edges,
			Families:     report.Families,
			Singletons:   report.Singletons,
			Motifs:       report.Motifs,
			Classified:   report.Lookups.Classified,
			Unclassified: report.Lookups.Unclassified,
			LookupFailed: report.Lookups.LookupFailed,
			Outputs:      report.Outputs,
			StartedAt:    report.StartedAt,
			FinishedAt:   report.FinishedAt,
		}
		if runErr != nil {
			payload.Error = runErr.Error()
		}
		err := s.sinks.Events.PublishRun(ctx, payload)
		prometheus.RecordArtifact(s.metrics, "kafka", err)
		if err != nil {
			log.Warn("Run event publish failed", logging.Err(err))
		}
	}

	if runErr != nil {
		log.Error("Run failed", logging.Err(runErr), logging.Duration("elapsed", report.Duration()))
		return
	}
	log.Info("Run finished",
		logging.Int("nodes", report.Nodes),
		logging.Int("edges", report.Edges),
		logging.Int("families", report.Families),
		logging.Strings("outputs", report.OutputPaths()),
		logging.Duration("elapsed", report.Duration()))
}

// exportNetwork replaces the run's graph in the network repository.
func (s *Service) exportNetwork(ctx context.Context, log logging.Logger, runID string, nodes []network.NodeAttributes, edges []network.EdgeAttributes) {
	if s.sinks.Network == nil {
		return
	}
	err := s.sinks.Network.DeleteRun(ctx, runID)
	if err == nil {
		err = s.sinks.Network.SaveNodes(ctx, runID, nodes)
	}
	if err == nil {
		err = s.sinks.Network.SaveEdges(ctx, runID, edges)
	}
	prometheus.RecordArtifact(s.metrics, "neo4j", err)
	if err != nil {
		log.Warn("Network export failed", logging.Err(err))
		return
	}
	if n, err := s.sinks.Network.CountNodes(ctx, runID); err == nil {
		log.Info("Network exported", logging.Int("nodes", n), logging.Int("edges", len(edges)))
	}
}
