package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HanbitLabs/novlate"
	"github.com/HanbitLabs/novlate/pipeline"
)

// withPipeline loads config, opens the pipeline, runs fn, and closes.
func withPipeline(ctx *commandContext, fn func(*pipeline.Pipeline, *pipeline.Config) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(p, cfg)
}

// targetLanguages resolves the --lang flag against the configured targets.
func targetLanguages(cfg *pipeline.Config, langFlag string) ([]string, error) {
	if langFlag == "" {
		return cfg.Series.TargetLanguages, nil
	}
	lang := novlate.NormalizeLanguage(langFlag)
	for _, configured := range cfg.Series.TargetLanguages {
		if configured == lang {
			return []string{lang}, nil
		}
	}
	return nil, fmt.Errorf("language %q is not a configured target (%v)", langFlag, cfg.Series.TargetLanguages)
}

func printResults(ctx *commandContext, cmd *cobra.Command, results ...*pipeline.StageResult) error {
	if *ctx.jsonFlag {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Stage,
			res.Language,
			strconv.Itoa(res.Succeeded),
			strconv.Itoa(res.Failed),
			strconv.Itoa(len(res.Warnings)),
		})
	}
	cmd.Println(renderTable(
		[]string{"Stage", "Language", "Succeeded", "Failed", "Warnings"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	for _, res := range results {
		for _, w := range res.Warnings {
			cmd.Printf("warning (%s): %s\n", res.Stage, w)
		}
		for _, e := range res.Errors {
			cmd.Printf("error (%s): %s\n", res.Stage, e)
		}
	}
	return nil
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split <manuscript>",
		Short: "Split a manuscript into episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(ctx, func(p *pipeline.Pipeline, cfg *pipeline.Config) error {
				res, err := p.RunSplit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResults(ctx, cmd, res)
			})
		},
	}
}

func newGlossaryCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Extract and translate glossary terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(ctx, func(p *pipeline.Pipeline, cfg *pipeline.Config) error {
				langs, err := targetLanguages(cfg, langFlag)
				if err != nil {
					return err
				}
				var results []*pipeline.StageResult
				for _, lang := range langs {
					res, err := p.RunGlossary(cmd.Context(), lang)
					if err != nil {
						return err
					}
					results = append(results, res)
				}
				return printResults(ctx, cmd, results...)
			})
		},
	}
	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Limit to one target language")
	return cmd
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate pending episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(ctx, func(p *pipeline.Pipeline, cfg *pipeline.Config) error {
				langs, err := targetLanguages(cfg, langFlag)
				if err != nil {
					return err
				}
				var results []*pipeline.StageResult
				for _, lang := range langs {
					res, err := p.RunTranslate(cmd.Context(), lang)
					if err != nil {
						return err
					}
					results = append(results, res)
				}
				return printResults(ctx, cmd, results...)
			})
		},
	}
	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Limit to one target language")
	return cmd
}

func newQACommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Validate translated episodes and write QA reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(ctx, func(p *pipeline.Pipeline, cfg *pipeline.Config) error {
				langs, err := targetLanguages(cfg, langFlag)
				if err != nil {
					return err
				}
				var results []*pipeline.StageResult
				for _, lang := range langs {
					res, err := p.RunQA(cmd.Context(), lang)
					if err != nil {
						return err
					}
					results = append(results, res)
				}
				return printResults(ctx, cmd, results...)
			})
		},
	}
	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Limit to one target language")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [manuscript]",
		Short: "Run the full pipeline: split, glossary, translate, QA",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(ctx, func(p *pipeline.Pipeline, cfg *pipeline.Config) error {
				manuscript := ""
				if len(args) == 1 {
					manuscript = args[0]
				}
				results, err := p.RunAll(cmd.Context(), manuscript)
				if printErr := printResults(ctx, cmd, results...); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "novlate.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := pipeline.CreateSample(path); err != nil {
				return err
			}
			cmd.Printf("Sample configuration written to %s\n", path)
			return nil
		},
	})
	return configCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(novlate.FullVersion())
			return nil
		},
	}
}
