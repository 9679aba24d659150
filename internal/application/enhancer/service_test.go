package enhancer

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/domain/network"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
	"github.com/turtacn/MolNetEnhancer/internal/testutil"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeClassifier struct {
	results    map[string]ontology.Classification
	records    []ontology.StructureRecord
	keys       []string
	structures []string
}

func (f *fakeClassifier) ResolveAll(_ context.Context, keys []string) ([]ontology.Classification, error) {
	f.keys = keys
	out := make([]ontology.Classification, 0, len(keys))
	for _, k := range keys {
		if c, ok := f.results[k]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, ontology.NewUnclassified(k))
	}
	return out, nil
}

func (f *fakeClassifier) ClassifyStructures(_ context.Context, structures []string) ([]ontology.StructureRecord, error) {
	f.structures = structures
	return f.records, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	nodes   []network.NodeAttributes
	edges   []network.EdgeAttributes
	deleted []string
	saveErr error
}

func (r *fakeRepo) SaveNodes(_ context.Context, _ string, nodes []network.NodeAttributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nodes = append(r.nodes, nodes...)
	return nil
}

func (r *fakeRepo) SaveEdges(_ context.Context, _ string, edges []network.EdgeAttributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, edges...)
	return nil
}

func (r *fakeRepo) DeleteRun(_ context.Context, runID string) error {
	r.deleted = append(r.deleted, runID)
	return nil
}

func (r *fakeRepo) CountNodes(_ context.Context, _ string) (int, error) {
	return len(r.nodes), nil
}

type fakeStore struct {
	paths []string
	err   error
}

func (s *fakeStore) UploadRun(_ context.Context, runID, _ string, paths []string) ([]*minio.Artifact, error) {
	s.paths = paths
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*minio.Artifact, len(paths))
	for i, p := range paths {
		out[i] = &minio.Artifact{ObjectKey: minio.ObjectKey(runID, p)}
	}
	return out, nil
}

type fakePublisher struct {
	payloads []kafka.RunCompletedPayload
	err      error
}

func (p *fakePublisher) PublishRun(_ context.Context, payload kafka.RunCompletedPayload) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type fixture struct {
	dir        string
	out        string
	repo       *fakeRepo
	store      *fakeStore
	publisher  *fakePublisher
	classifier *fakeClassifier
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	return &fixture{
		dir:        dir,
		out:        out,
		repo:       &fakeRepo{},
		store:      &fakeStore{},
		publisher:  &fakePublisher{},
		classifier: &fakeClassifier{},
	}
}

func (f *fixture) service(opts ...Option) *Service {
	base := []Option{
		WithClassifier(f.classifier),
		WithSinks(Sinks{Network: f.repo, Artifacts: f.store, Events: f.publisher}),
	}
	s := NewService(logging.NewNopLogger(), append(base, opts...)...)
	s.newRunID = func() string { return "run-1" }
	return s
}

// Nodes 10, 11 and 12 form family 1; node 13 is unclustered.
func (f *fixture) classesRequest(t *testing.T) ClassesRequest {
	return ClassesRequest{
		NodesPath: writeFile(t, f.dir, "nodes.tsv", "cluster index\tcomponentindex\n10\t1\n11\t1\n12\t1\n13\t-1\n"),
		AnnotationPaths: []string{
			writeFile(t, f.dir, "gnps.tsv", "cluster index\tSmiles\n10\tCCO\n11\tCCN\n"),
		},
		OutputDir: f.out,
	}
}

func readOutput(t *testing.T, path string) map[string][]string {
	t.Helper()
	tbl, err := tabular.ReadTable(path)
	require.NoError(t, err)
	rows := make(map[string][]string, len(tbl.Records))
	for _, rec := range tbl.Records {
		rows[rec[0]] = rec
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// classes
// ─────────────────────────────────────────────────────────────────────────────

func TestRunClasses_FromClassyTable(t *testing.T) {
	f := newFixture(t)
	req := f.classesRequest(t)
	req.ClassyTablePath = writeFile(t, f.dir, "classy.tsv",
		"smiles\tinchikey\tkingdom\nCCO\tKEY-A\tOrganic compounds\nCCN\tKEY-B\t\n")

	report, err := f.service().RunClasses(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, CommandClasses, report.Command)
	assert.Equal(t, 4, report.Nodes)
	assert.Equal(t, 2, report.Families)
	assert.Equal(t, 1, report.Singletons)
	assert.Equal(t, LookupStats{Classified: 1, Unclassified: 1}, report.Lookups)
	assert.Nil(t, f.classifier.keys)
	assert.Nil(t, f.classifier.structures)

	require.Contains(t, report.Outputs, ClassSummaryFile)
	assert.NotContains(t, report.Outputs, ClassyTableFile)

	rows := readOutput(t, report.Outputs[ClassSummaryFile])
	require.Len(t, rows, 4)
	for _, id := range []string{"10", "11", "12"} {
		assert.Equal(t, []string{"1", "3", "Organic compounds", "0.3333333333333333"}, rows[id][1:5])
	}
	assert.Equal(t, []string{"S1", "1", ontology.NoMatches, ""}, rows["13"][1:5])
}

func TestRunClasses_StructureMapResolvesKeys(t *testing.T) {
	f := newFixture(t)
	f.classifier.results = map[string]ontology.Classification{
		"KEY-A": ontology.NewClassified("KEY-A", ontology.NewStructureRecord("", "KEY-A",
			map[ontology.Level]string{ontology.Kingdom: "Organic compounds"})),
	}
	req := f.classesRequest(t)
	req.StructureMapPath = writeFile(t, f.dir, "map.tsv", "smiles\tinchikey\nCCO\tInChIKey=KEY-A\nCCN\tKEY-B\n")

	report, err := f.service().RunClasses(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"KEY-A", "KEY-B"}, f.classifier.keys)
	assert.Equal(t, LookupStats{Classified: 1, Unclassified: 1}, report.Lookups)

	require.Contains(t, report.Outputs, ClassyTableFile)
	classy := readOutput(t, report.Outputs[ClassyTableFile])
	require.Contains(t, classy, "CCO")
	assert.Equal(t, "KEY-A", classy["CCO"][1])
	assert.Equal(t, "Organic compounds", classy["CCO"][2])

	rows := readOutput(t, report.Outputs[ClassSummaryFile])
	assert.Equal(t, "0.3333333333333333", rows["10"][4])
}

func TestRunClasses_ClassifiesUniqueStructures(t *testing.T) {
	f := newFixture(t)
	f.classifier.records = []ontology.StructureRecord{
		ontology.NewStructureRecord("CCO", "KEY-A", map[ontology.Level]string{
			ontology.Kingdom:    "Organic compounds",
			ontology.Superclass: "Organic oxygen compounds",
		}),
		ontology.UnclassifiedRecord("CCN", ""),
	}
	req := f.classesRequest(t)

	report, err := f.service().RunClasses(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"CCO", "CCN"}, f.classifier.structures)
	assert.Equal(t, LookupStats{Classified: 1, Unclassified: 1}, report.Lookups)
	assert.Contains(t, report.Outputs, ClassyTableFile)

	rows := readOutput(t, report.Outputs[ClassSummaryFile])
	assert.Equal(t, "Organic oxygen compounds", rows["11"][5])
}

func TestRunClasses_ExportsToSinks(t *testing.T) {
	f := newFixture(t)
	req := f.classesRequest(t)
	req.ClassyTablePath = writeFile(t, f.dir, "classy.tsv", "smiles\tinchikey\tkingdom\nCCO\tKEY-A\tOrganic compounds\n")
	req.EdgesPath = writeFile(t, f.dir, "edges.tsv", "CLUSTERID1\tCLUSTERID2\tDeltaMZ\tCosine\tComponentIndex\n10\t11\t14.01\t0.9\t1\n")

	report, err := f.service().RunClasses(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"run-1"}, f.repo.deleted)
	require.Len(t, f.repo.nodes, 4)
	assert.Equal(t, network.NodeID(10), f.repo.nodes[0].ID)
	assert.Equal(t, "Organic compounds", f.repo.nodes[0].Attributes["CF_kingdom"])
	require.Len(t, f.repo.edges, 1)
	assert.Equal(t, motif.InteractionCosine, f.repo.edges[0].Interaction)
	assert.Equal(t, 1, report.Edges)

	assert.Equal(t, report.OutputPaths(), f.store.paths)
	require.Len(t, report.Artifacts, 1)
	assert.Equal(t, "runs/run-1/"+ClassSummaryFile, report.Artifacts[0].ObjectKey)

	require.Len(t, f.publisher.payloads, 1)
	p := f.publisher.payloads[0]
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, 4, p.Nodes)
	assert.Empty(t, p.Error)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRunClasses_SinkFailuresDoNotFailRun(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = stderrors.New("graph down")
	f.store.err = stderrors.New("bucket gone")
	f.publisher.err = stderrors.New("broker gone")
	req := f.classesRequest(t)
	req.ClassyTablePath = writeFile(t, f.dir, "classy.tsv", "smiles\tinchikey\tkingdom\nCCO\tKEY-A\tOrganic compounds\n")

	logger := testutil.NewRecordingLogger()
	s := f.service()
	s.logger = logger

	report, err := s.RunClasses(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, report.Outputs, ClassSummaryFile)
	assert.Len(t, f.publisher.payloads, 1)

	assert.True(t, logger.HasMessage("warn", "Network export failed"))
	assert.True(t, logger.HasMessage("warn", "Artifact upload failed"))
	assert.True(t, logger.HasMessage("warn", "Run event publish failed"))
	assert.True(t, logger.HasMessage("info", "Run finished"))
	for _, e := range logger.Entries("warn") {
		assert.Equal(t, "run-1", e.Fields["run_id"])
		assert.Equal(t, CommandClasses, e.Logger)
	}
}

func TestRunClasses_NoClassifierWithoutClassyTable(t *testing.T) {
	f := newFixture(t)
	s := NewService(logging.NewNopLogger(), WithSinks(Sinks{Artifacts: f.store, Events: f.publisher}))

	_, err := s.RunClasses(context.Background(), f.classesRequest(t))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	assert.Nil(t, f.store.paths)
	require.Len(t, f.publisher.payloads, 1)
	assert.NotEmpty(t, f.publisher.payloads[0].Error)
}

func TestRunClasses_MissingInput(t *testing.T) {
	f := newFixture(t)
	req := f.classesRequest(t)
	req.NodesPath = filepath.Join(f.dir, "absent.tsv")
	req.ClassyTablePath = writeFile(t, f.dir, "classy.tsv", "smiles\tinchikey\nCCO\tKEY-A\n")

	_, err := f.service().RunClasses(context.Background(), req)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.repo.nodes)
}

func TestClassesRequest_Validate(t *testing.T) {
	assert.Error(t, ClassesRequest{}.Validate())
	assert.Error(t, ClassesRequest{NodesPath: "n.tsv"}.Validate())
	assert.NoError(t, ClassesRequest{NodesPath: "n.tsv", AnnotationPaths: []string{"a.tsv"}}.Validate())
}

// ─────────────────────────────────────────────────────────────────────────────
// motifs
// ─────────────────────────────────────────────────────────────────────────────

func TestRunMotifs(t *testing.T) {
	f := newFixture(t)
	req := MotifsRequest{
		EdgesPath: writeFile(t, f.dir, "edges.tsv", "CLUSTERID1\tCLUSTERID2\tDeltaMZ\tCosine\tComponentIndex\n1\t2\t14\t0.9\t7\n"),
		MotifsPath: writeFile(t, f.dir, "motifs.csv", "scans,document,motif,probability,overlap,precursormass,parentrt\n"+
			"1,d1,motif_1,0.9,0.5,100,10\n1,d1,motif_2,0.9,0.5,100,10\n"+
			"2,d2,motif_1,0.9,0.5,200,20\n2,d2,motif_2,0.9,0.5,200,20\n"),
		OutputDir: f.out,
		Options:   motif.DefaultOptions(),
	}

	report, err := f.service().RunMotifs(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, CommandMotifs, report.Command)
	assert.Equal(t, 2, report.Nodes)
	assert.Equal(t, 1, report.Edges)
	assert.Equal(t, 1, report.Families)
	assert.Equal(t, 2, report.Motifs)
	assert.Contains(t, report.Outputs, MotifNodesFile)
	assert.Contains(t, report.Outputs, MotifEdgesFile)

	edges, err := tabular.ReadTable(report.Outputs[MotifEdgesFile])
	require.NoError(t, err)
	assert.Len(t, edges.Records, 3)

	require.Len(t, f.repo.edges, 3)
	assert.Equal(t, motif.InteractionCosine, f.repo.edges[0].Interaction)
	assert.Equal(t, "motif_1", f.repo.edges[1].Interaction)
	assert.Equal(t, "motif_2", f.repo.edges[2].Interaction)
	assert.Len(t, f.repo.nodes, 2)
	assert.Len(t, f.store.paths, 2)
}

func TestMotifsRequest_Validate(t *testing.T) {
	ok := MotifsRequest{EdgesPath: "e.tsv", MotifsPath: "m.csv", Options: motif.DefaultOptions()}
	assert.NoError(t, ok.Validate())

	missing := ok
	missing.MotifsPath = ""
	assert.True(t, errors.IsCode(missing.Validate(), errors.CodeInvalidParam))

	badOverlap := ok
	badOverlap.Options.MinOverlap = 1.5
	assert.True(t, errors.IsCode(badOverlap.Validate(), errors.CodeInvalidThresholds))

	badTop := ok
	badTop.Options.Top = 0
	assert.True(t, errors.IsCode(badTop.Validate(), errors.CodeInvalidParam))
}
