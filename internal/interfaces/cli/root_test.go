package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolNetEnhancer/internal/application/enhancer"
	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type fakeRunner struct {
	classes  enhancer.ClassesRequest
	motifs   enhancer.MotifsRequest
	write    tabular.WriteOptions
	err      error
	cleaned  bool
	finished time.Time
}

func (f *fakeRunner) report(command string) *enhancer.RunReport {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &enhancer.RunReport{
		RunID:      "run-1",
		Command:    command,
		Nodes:      4,
		Edges:      1,
		Families:   2,
		Singletons: 1,
		Lookups:    enhancer.LookupStats{Classified: 1, Unclassified: 1},
		Outputs:    map[string]string{enhancer.ClassSummaryFile: "/tmp/out/" + enhancer.ClassSummaryFile},
		Artifacts:  []*minio.Artifact{{ObjectKey: "runs/run-1/" + enhancer.ClassSummaryFile}},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func (f *fakeRunner) RunClasses(_ context.Context, req enhancer.ClassesRequest) (*enhancer.RunReport, error) {
	f.classes = req
	if f.err != nil {
		return nil, f.err
	}
	return f.report(enhancer.CommandClasses), nil
}

func (f *fakeRunner) RunMotifs(_ context.Context, req enhancer.MotifsRequest) (*enhancer.RunReport, error) {
	f.motifs = req
	if f.err != nil {
		return nil, f.err
	}
	return f.report(enhancer.CommandMotifs), nil
}

func (f *fakeRunner) factory() RunnerFactory {
	return func(_ context.Context, _ *CLIContext, write tabular.WriteOptions) (Runner, func(), error) {
		f.write = write
		return f, func() { f.cleaned = true }, nil
	}
}

// writeConfig writes a config file enabling the metrics textfile.
func writeConfig(t *testing.T) (configPath, textfile string) {
	t.Helper()
	dir := t.TempDir()
	textfile = filepath.Join(dir, "molnet.prom")
	configPath = filepath.Join(dir, "molnet.yaml")
	content := "log:\n  level: error\n" +
		"motif:\n  min_probability: 0.05\n  min_overlap: 0.4\n  top: 7\n" +
		"metrics:\n  enabled: true\n  namespace: molnet\n  textfile_path: " + textfile + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, textfile
}

func execute(t *testing.T, runner *fakeRunner, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(runner.factory())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// ─────────────────────────────────────────────────────────────────────────────
// Root command
// ─────────────────────────────────────────────────────────────────────────────

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "molnet", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"classes", "motifs", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"config", "log-level", "output", "verbose", "watch-config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestOverwriteFlag_DescribesAnnotatedSuffix(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"classes", "motifs"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		flag := sub.Flags().Lookup("overwrite")
		require.NotNil(t, flag, name)
		assert.Equal(t, "false", flag.DefValue)
		assert.Contains(t, flag.Usage, tabular.AnnotatedSuffix, name)
	}
}

func TestVersionCmd_SkipsConfig(t *testing.T) {
	out, err := execute(t, &fakeRunner{}, "version", "--config", "/nonexistent/molnet.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "molnet "+Version)
	assert.Contains(t, out, "commit:")
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := execute(t, &fakeRunner{}, "classes", "--config", "/nonexistent/molnet.yaml",
		"--nodes", "n.tsv", "--annotations", "a.tsv")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// classes
// ─────────────────────────────────────────────────────────────────────────────

func TestClassesCmd_BuildsRequest(t *testing.T) {
	cfg, textfile := writeConfig(t)
	runner := &fakeRunner{}

	out, err := execute(t, runner, "classes", "--config", cfg, "-o", "json",
		"--nodes", "nodes.tsv",
		"--annotations", "gnps.tsv", "--annotations", "nap.tsv",
		"--edges", "edges.tsv",
		"--classy-table", "classy.tsv",
		"--out-dir", "results",
		"--overwrite")
	require.NoError(t, err)

	assert.Equal(t, enhancer.ClassesRequest{
		NodesPath:       "nodes.tsv",
		AnnotationPaths: []string{"gnps.tsv", "nap.tsv"},
		EdgesPath:       "edges.tsv",
		ClassyTablePath: "classy.tsv",
		OutputDir:       "results",
	}, runner.classes)
	assert.True(t, runner.write.Overwrite)
	assert.True(t, runner.cleaned)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "run-1", view["run_id"])
	assert.Equal(t, float64(4), view["nodes"])
	assert.Equal(t, "1.5s", view["duration"])

	assert.FileExists(t, textfile)
}

func TestClassesCmd_RequiresFlags(t *testing.T) {
	cfg, _ := writeConfig(t)
	_, err := execute(t, &fakeRunner{}, "classes", "--config", cfg, "--nodes", "nodes.tsv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annotations")
}

func TestClassesCmd_ClassyTableAndStructureMapExclusive(t *testing.T) {
	cfg, _ := writeConfig(t)
	_, err := execute(t, &fakeRunner{}, "classes", "--config", cfg,
		"--nodes", "n.tsv", "--annotations", "a.tsv",
		"--classy-table", "c.tsv", "--structure-map", "m.tsv")
	assert.Error(t, err)
}

func TestClassesCmd_RunErrorStillFlushesMetrics(t *testing.T) {
	cfg, textfile := writeConfig(t)
	runner := &fakeRunner{err: errors.New(errors.CodeTableMissingColumn, "node table has no componentindex column")}

	_, err := execute(t, runner, "classes", "--config", cfg, "--nodes", "n.tsv", "--annotations", "a.tsv")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTableMissingColumn))
	assert.True(t, runner.cleaned)
	assert.FileExists(t, textfile)
}

func TestClassesCmd_TextOutput(t *testing.T) {
	cfg, _ := writeConfig(t)
	out, err := execute(t, &fakeRunner{}, "classes", "--config", cfg, "--nodes", "n.tsv", "--annotations", "a.tsv")
	require.NoError(t, err)
	assert.Contains(t, out, "classes run run-1 finished in 1.5s")
	assert.Contains(t, out, "(1 singletons)")
	assert.Contains(t, out, "classified: 1  unclassified: 1  lookup failed: 0")
	assert.Contains(t, out, "uploaded runs/run-1/"+enhancer.ClassSummaryFile)
}

// ─────────────────────────────────────────────────────────────────────────────
// motifs
// ─────────────────────────────────────────────────────────────────────────────

func TestMotifsCmd_ThresholdsFromConfig(t *testing.T) {
	cfg, _ := writeConfig(t)
	runner := &fakeRunner{}

	_, err := execute(t, runner, "motifs", "--config", cfg, "--edges", "e.tsv", "--motifs", "m.csv")
	require.NoError(t, err)
	assert.Equal(t, motif.Options{MinProbability: 0.05, MinOverlap: 0.4, Top: 7}, runner.motifs.Options)
	assert.Equal(t, ".", runner.motifs.OutputDir)
}

func TestMotifsCmd_FlagsOverrideConfig(t *testing.T) {
	cfg, _ := writeConfig(t)
	runner := &fakeRunner{}

	_, err := execute(t, runner, "motifs", "--config", cfg, "--edges", "e.tsv", "--motifs", "m.csv",
		"--top", "3", "--min-overlap", "0.5")
	require.NoError(t, err)
	assert.Equal(t, motif.Options{MinProbability: 0.05, MinOverlap: 0.5, Top: 3}, runner.motifs.Options)
	assert.Equal(t, "e.tsv", runner.motifs.EdgesPath)
	assert.Equal(t, "m.csv", runner.motifs.MotifsPath)
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"A", "LONGER"}, [][]string{{"value", "x"}, {"v"}})
	assert.Equal(t, "A      LONGER\n-----  ------\nvalue  x     \nv            \n", out)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestReportView_TableRows(t *testing.T) {
	v := newReportView((&fakeRunner{}).report(enhancer.CommandClasses))
	rows := v.TableRows()
	assert.Equal(t, []string{"run_id", "run-1"}, rows[0])
	assert.Contains(t, rows, []string{enhancer.ClassSummaryFile, "/tmp/out/" + enhancer.ClassSummaryFile})
	assert.Equal(t, []string{"duration", "1.5s"}, rows[len(rows)-1])
}

func TestPrintError(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetErr(&buf)
	PrintError(cmd, nil)
	assert.Empty(t, buf.String())
	PrintError(cmd, errors.InvalidParam("bad flag"))
	assert.Contains(t, buf.String(), "Error: [COMMON_002] bad flag")
}
