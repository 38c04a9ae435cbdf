package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/output"
	"github.com/jackzampolin/archivist/internal/prompts"
)

var promptsExportForce bool

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and export oracle prompt templates",
	Long: `Inspect and export oracle prompt templates.

Set prompts.override_dir in the config to a directory of <key>.tmpl files to
replace the embedded templates. "prompts export" seeds such a directory.`,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts with their resolved hashes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		var resolved []*prompts.ResolvedPrompt
		for _, p := range r.AllEmbedded() {
			rp, err := r.Resolve(p.Key)
			if err != nil {
				return err
			}
			resolved = append(resolved, rp)
		}
		return output.Print(resolved)
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a prompt template as it will be sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := promptResolver()
		if err != nil {
			return err
		}
		rp, err := r.Resolve(args[0])
		if err != nil {
			return err
		}
		source := "embedded"
		if rp.IsOverride {
			source = rp.Path
		}
		fmt.Fprintf(os.Stderr, "# %s (%s, %s)\n", rp.Key, source, rp.Hash[:12])
		fmt.Print(strings.TrimRight(rp.Text, "\n") + "\n")
		return nil
	},
}

var promptsExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the embedded templates to a directory for editing",
	Long: `Write every embedded template to dir/<key>.tmpl (default: ~/.archivist/prompts).
Point prompts.override_dir at the directory to use the edited versions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, _, err := loadConfig()
		if err != nil {
			return err
		}
		dir := h.PromptsPath()
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		var written []string
		for _, p := range oracle.NewResolver("", nil).AllEmbedded() {
			path := filepath.Join(dir, p.Key+".tmpl")
			if _, err := os.Stat(path); err == nil && !promptsExportForce {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.WriteFile(path, []byte(p.Text), 0o644); err != nil {
				return err
			}
			written = append(written, path)
		}
		return output.Print(map[string]any{"dir": dir, "written": written})
	},
}

func promptResolver() (*prompts.Resolver, error) {
	_, mgr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return oracle.NewResolver(mgr.Get().Prompts.OverrideDir, nil), nil
}

func init() {
	promptsExportCmd.Flags().BoolVar(&promptsExportForce, "force", false, "overwrite existing files")

	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsExportCmd)
	rootCmd.AddCommand(promptsCmd)
}
