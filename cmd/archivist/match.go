package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/pipeline"
	"github.com/jackzampolin/archivist/internal/types"
)

var (
	matchResume bool
	runResume   bool
)

var matchCmd = &cobra.Command{
	Use:   "match <source.txt> <toc.json> <out.json>",
	Short: "Extract every table of contents entry from a source text",
	Long: `Locate and extract each article named in the table of contents.

The table of contents is a JSON array of {"name", "authors", "page", ...}
objects in document order. Matched articles are written to out.json as they
are found. Titles that could not be located are listed in
out.json.not_found.json; after a quota halt the unprocessed entries are in
out.json.remaining.json.

Examples:
  archivist match volume12.txt toc12.json articles12.json
  archivist match volume12.txt toc12.json articles12.json --resume`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.Close()

		stage, err := rt.matchStage(args[0], args[1], args[2], matchResume)
		if err != nil {
			return err
		}
		reg := pipeline.NewRegistry()
		if err := reg.Register(stage); err != nil {
			return err
		}
		return rt.run(cmd.Context(), reg)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <source.txt> <toc.json> <out.json>",
	Short: "Match every entry, then enrich the matched articles",
	Long: `Run the match stage followed by the enrich stage on the same output file.

A halt in either stage leaves a resumable checkpoint; rerun with --resume.
Enrichment skips records that already have an abstract.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.Close()

		match, err := rt.matchStage(args[0], args[1], args[2], runResume)
		if err != nil {
			return err
		}
		enrich := rt.enrichStage(args[2], args[2], pipeline.StageMatch)

		reg := pipeline.NewRegistry()
		for _, s := range []pipeline.Stage{match, enrich} {
			if err := reg.Register(s); err != nil {
				return err
			}
		}
		return rt.run(cmd.Context(), reg)
	},
}

func (rt *app) matchStage(sourcePath, tocPath, outPath string, resume bool) (*pipeline.MatchStage, error) {
	cfg := rt.config.Get()

	text, err := readSource(sourcePath)
	if err != nil {
		return nil, err
	}
	toc, err := types.LoadTOC(tocPath)
	if err != nil {
		return nil, err
	}
	locator, err := locate.New(cfg.LocateConfig())
	if err != nil {
		return nil, err
	}

	rt.logger.Info("match inputs loaded", "source", sourcePath, "entries", len(toc))
	return &pipeline.MatchStage{
		Matcher: &pipeline.Matcher{
			Locator:    locator,
			Oracle:     rt.oracle,
			Checkpoint: rt.checkpointer(outPath),
			Config:     cfg.PipelineConfig(),
			Pacer:      rt.pacer,
			Logger:     rt.logger,
		},
		Document: locate.NewDocument(text),
		TOC:      toc,
		Resume:   resume,
	}, nil
}

func init() {
	matchCmd.Flags().BoolVar(&matchResume, "resume", false, "skip entries already in out.json")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "skip entries already in out.json")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(runCmd)
}
