package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/MolNetEnhancer/internal/application/enhancer"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
)

type classesOptions struct {
	nodes        string
	annotations  []string
	edges        string
	classyTable  string
	structureMap string
	outDir       string
	overwrite    bool
}

func newClassesCmd(factory RunnerFactory) *cobra.Command {
	o := &classesOptions{}

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Score the dominant ClassyFire class of every molecular family",
		Long: "Consolidate structure annotations per node, classify every structure with ClassyFire\n" +
			"(or read a precomputed ClassyFire table) and write the per-node family class summary.",
		Example: "  molnet classes --nodes clusterinfo.tsv --annotations gnps.tsv --annotations nap.tsv\n" +
			"  molnet classes --nodes clusterinfo.tsv --annotations gnps.tsv --classy-table ClassyFireResults.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd, factory, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.nodes, "nodes", "", "GNPS node table with cluster index and componentindex (required)")
	f.StringArrayVar(&o.annotations, "annotations", nil, "structure annotation table; repeat for several sources (required)")
	f.StringVar(&o.edges, "edges", "", "GNPS edge table, exported with the network when a graph sink is enabled")
	f.StringVar(&o.classyTable, "classy-table", "", "precomputed ClassyFire table; skips all lookups")
	f.StringVar(&o.structureMap, "structure-map", "", "table mapping SMILES to InChIKeys; keys are looked up directly")
	f.StringVar(&o.outDir, "out-dir", ".", "output directory")
	f.BoolVar(&o.overwrite, "overwrite", false, "overwrite existing output files instead of appending _annotated to the name")
	_ = cmd.MarkFlagRequired("nodes")
	_ = cmd.MarkFlagRequired("annotations")
	cmd.MarkFlagsMutuallyExclusive("classy-table", "structure-map")

	return cmd
}

func runClasses(cmd *cobra.Command, factory RunnerFactory, o *classesOptions) error {
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

	req := enhancer.ClassesRequest{
		NodesPath:        o.nodes,
		AnnotationPaths:  o.annotations,
		EdgesPath:        o.edges,
		ClassyTablePath:  o.classyTable,
		StructureMapPath: o.structureMap,
		OutputDir:        o.outDir,
	}
	cc.Logger.Debug("Starting classes run",
		logging.String("nodes", req.NodesPath),
		logging.Strings("annotations", req.AnnotationPaths))

	report, err := runner.RunClasses(cmd.Context(), req)
	if err != nil {
		return err
	}
	return PrintResult(cmd, newReportView(report))
}
