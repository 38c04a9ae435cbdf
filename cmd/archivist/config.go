package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/config"
	"github.com/jackzampolin/archivist/internal/output"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to ~/.archivist/config.yaml, or to the
path given with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := loadHome()
			if err != nil {
				return err
			}
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := *mgr.Get()
		// ${VAR} references are printed as written
		if cfg.Oracle.APIKey != "" && !strings.Contains(cfg.Oracle.APIKey, "${") {
			cfg.Oracle.APIKey = "<redacted>"
		}
		return output.Print(cfg)
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every configuration key with its default",
	RunE: func(cmd *cobra.Command, args []string) error {
		type key struct {
			Key         string `json:"key" yaml:"key"`
			Default     string `json:"default" yaml:"default"`
			Env         string `json:"env" yaml:"env"`
			Description string `json:"description" yaml:"description"`
		}
		var keys []key
		for _, e := range config.DefaultEntries() {
			def := ""
			if e.Value != nil {
				def = fmt.Sprint(e.Value)
			}
			keys = append(keys, key{
				Key:         e.Key,
				Default:     def,
				Env:         config.EnvName(e.Key),
				Description: e.Description,
			})
		}
		return output.Print(keys)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
