package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/pipeline"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <records.json> [out.json]",
	Short: "Add an abstract and tags to matched articles",
	Long: `Generate an abstract and topical tags for every record that has none.

Records are rewritten in place unless out.json is given. When the oracle
keeps failing for a record, the abstract falls back to the first two
sentences of the text and the tags to the author surnames. An interrupted
run is resumed by running the same command again.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.Close()

		dest := args[0]
		if len(args) == 2 {
			dest = args[1]
		}
		reg := pipeline.NewRegistry()
		if err := reg.Register(rt.enrichStage(args[0], dest)); err != nil {
			return err
		}
		return rt.run(cmd.Context(), reg)
	},
}

func (rt *app) enrichStage(sourcePath, outPath string, deps ...string) *pipeline.EnrichStage {
	return &pipeline.EnrichStage{
		Enricher: &pipeline.Enricher{
			Oracle:     rt.oracle,
			Checkpoint: rt.checkpointer(outPath),
			Config:     rt.config.Get().PipelineConfig(),
			Pacer:      rt.pacer,
			Logger:     rt.logger,
		},
		Source: rt.checkpointer(sourcePath),
		Deps:   deps,
	}
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
