package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/pipeline"
)

var scanResume bool

var scanCmd = &cobra.Command{
	Use:   "scan <source.txt> <out.json>",
	Short: "Split a source text into articles without a table of contents",
	Long: `Walk the whole source in overlapping character chunks and keep every
article the oracle reports. Records are written after each chunk and
duplicates from the overlap are removed at the end.

Examples:
  archivist scan volume12.txt articles12.json
  archivist scan volume12.txt articles12.json --resume`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := rt.config.Get()
		text, err := readSource(args[0])
		if err != nil {
			return err
		}
		splitter, err := cfg.ScanSplitter()
		if err != nil {
			return err
		}

		reg := pipeline.NewRegistry()
		err = reg.Register(&pipeline.ScanStage{
			Scanner: &pipeline.Scanner{
				Oracle:     rt.oracle,
				Splitter:   splitter,
				Checkpoint: rt.checkpointer(args[1]),
				Config:     cfg.PipelineConfig(),
				Pacer:      rt.pacer,
				Logger:     rt.logger,
			},
			Text:   text,
			Resume: scanResume,
		})
		if err != nil {
			return err
		}
		return rt.run(cmd.Context(), reg)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanResume, "resume", false, "continue from the checkpoint's next chunk")

	rootCmd.AddCommand(scanCmd)
}
