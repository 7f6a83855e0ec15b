package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/config"
	"github.com/dataquard/dataquard/internal/home"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the dataquard home directory",
	Long: `Initialize the dataquard home directory (~/.dataquard by default)
and write a default config.yaml.

The default config references API keys via ${ENV_VAR} syntax, so
secrets stay in the environment:
  export ANTHROPIC_API_KEY=...
  export RESEND_API_KEY=...
  export DATAQUARD_CRON_SECRET=...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() {
			fmt.Printf("Config already exists: %s\n", h.ConfigPath())
			return nil
		}

		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Initialized %s\n", h.Path())
		fmt.Printf("Wrote default config: %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
