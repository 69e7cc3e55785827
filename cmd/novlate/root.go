package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HanbitLabs/novlate/pipeline"
)

// commandContext carries shared flag state and the lazily loaded config.
type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	cfg        *pipeline.Config
}

func (c *commandContext) ensureConfig() (*pipeline.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := *c.configFlag
	if path == "" {
		path = "novlate.toml"
	}
	cfg, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := &commandContext{configFlag: &configFlag, jsonFlag: &jsonFlag}

	rootCmd := &cobra.Command{
		Use:           "novlate",
		Short:         "Glossary-consistent web-novel localization pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default novlate.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON output")

	rootCmd.AddCommand(newSplitCommand(ctx))
	rootCmd.AddCommand(newGlossaryCommand(ctx))
	rootCmd.AddCommand(newTranslateCommand(ctx))
	rootCmd.AddCommand(newQACommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
