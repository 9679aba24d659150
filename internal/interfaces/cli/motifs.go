package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/MolNetEnhancer/internal/application/enhancer"
	"github.com/turtacn/MolNetEnhancer/internal/domain/motif"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
)

type motifsOptions struct {
	edges          string
	motifs         string
	outDir         string
	overwrite      bool
	minProbability float64
	minOverlap     float64
	top            int
}

func newMotifsCmd(factory RunnerFactory) *cobra.Command {
	o := &motifsOptions{}
	defaults := motif.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "motifs",
		Short: "Overlay MS2LDA Mass2Motifs onto the molecular network",
		Long: "Filter motif assignments by probability and overlap, intersect the motifs of every\n" +
			"edge's endpoints and write motif node and edge tables with one virtual edge per shared motif.",
		Example: "  molnet motifs --edges networkedges_selfloop.tsv --motifs ms2lda_summary.csv --top 5",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMotifs(cmd, factory, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.edges, "edges", "", "GNPS edge table (required)")
	f.StringVar(&o.motifs, "motifs", "", "MS2LDA motif summary table (required)")
	f.StringVar(&o.outDir, "out-dir", ".", "output directory")
	f.BoolVar(&o.overwrite, "overwrite", false, "overwrite existing output files instead of appending _annotated to the name")
	f.Float64Var(&o.minProbability, "min-probability", defaults.MinProbability, "keep assignments with probability above this value")
	f.Float64Var(&o.minOverlap, "min-overlap", defaults.MinOverlap, "keep assignments with overlap above this value")
	f.IntVar(&o.top, "top", defaults.Top, "number of most shared motifs kept per family")
	_ = cmd.MarkFlagRequired("edges")
	_ = cmd.MarkFlagRequired("motifs")

	return cmd
}

// motifOptions merges the config file thresholds with explicitly set flags.
func motifOptions(cmd *cobra.Command, cc *CLIContext, o *motifsOptions) motif.Options {
	opts := motif.Options{
		MinProbability: cc.Config.Motif.MinProbability,
		MinOverlap:     cc.Config.Motif.MinOverlap,
		Top:            cc.Config.Motif.Top,
	}
	f := cmd.Flags()
	if f.Changed("min-probability") {
		opts.MinProbability = o.minProbability
	}
	if f.Changed("min-overlap") {
		opts.MinOverlap = o.minOverlap
	}
	if f.Changed("top") {
		opts.Top = o.top
	}
	return opts
}

func runMotifs(cmd *cobra.Command, factory RunnerFactory, o *motifsOptions) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	defer cc.flushMetrics()

	runner, cleanup, err := factory(cmd.Context(), cc, tabular.WriteOptions{Overwrite: o.overwrite})
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := runner.RunMotifs(cmd.Context(), enhancer.MotifsRequest{
		EdgesPath:  o.edges,
		MotifsPath: o.motifs,
		OutputDir:  o.outDir,
		Options:    motifOptions(cmd, cc, o),
	})
	if err != nil {
		return err
	}
	return PrintResult(cmd, newReportView(report))
}
