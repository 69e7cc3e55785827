package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/HanbitLabs/novlate/pipeline"
)

type stageStatusRow struct {
	Stage    string `json:"stage"`
	Language string `json:"language,omitempty"`
	Done     int    `json:"done"`
	Failed   int    `json:"failed"`
}

type statusOutput struct {
	Series   string               `json:"series"`
	Episodes int                  `json:"episodes"`
	Stages   []stageStatusRow     `json:"stages"`
	Runs     []pipeline.RunRecord `json:"recent_runs,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline progress per stage and language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := pipeline.OpenStore(cfg.DBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			series := cfg.Series.Name
			episodes, err := store.Episodes(cmd.Context(), series)
			if err != nil {
				return err
			}

			out := statusOutput{Series: series, Episodes: len(episodes)}

			addRow := func(stage, language string) error {
				counts, err := store.StageCounts(cmd.Context(), series, stage, language)
				if err != nil {
					return err
				}
				out.Stages = append(out.Stages, stageStatusRow{
					Stage:    stage,
					Language: language,
					Done:     counts[pipeline.StatusDone],
					Failed:   counts[pipeline.StatusFailed],
				})
				return nil
			}

			if err := addRow(pipeline.StageSplit, ""); err != nil {
				return err
			}
			for _, lang := range cfg.Series.TargetLanguages {
				for _, stage := range []string{pipeline.StageTranslate, pipeline.StageQA} {
					if err := addRow(stage, lang); err != nil {
						return err
					}
				}
			}

			runs, err := store.Runs(cmd.Context(), series, 10)
			if err != nil {
				return err
			}
			out.Runs = runs

			if *ctx.jsonFlag {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			cmd.Printf("Series: %s (%d episodes)\n\n", series, len(episodes))

			rows := make([][]string, 0, len(out.Stages))
			for _, row := range out.Stages {
				pending := len(episodes) - row.Done - row.Failed
				if pending < 0 {
					pending = 0
				}
				rows = append(rows, []string{
					row.Stage,
					row.Language,
					strconv.Itoa(row.Done),
					strconv.Itoa(row.Failed),
					strconv.Itoa(pending),
				})
			}
			cmd.Println(renderTable(
				[]string{"Stage", "Language", "Done", "Failed", "Pending"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))

			if len(runs) > 0 {
				cmd.Println("\nRecent runs:")
				runRows := make([][]string, 0, len(runs))
				for _, run := range runs {
					finished := "running"
					if run.FinishedAt != nil {
						finished = run.FinishedAt.Format(time.RFC3339)
					}
					runRows = append(runRows, []string{
						run.Stage,
						run.Language,
						run.StartedAt.Format(time.RFC3339),
						finished,
						strconv.Itoa(run.Succeeded),
						strconv.Itoa(run.Failed),
					})
				}
				cmd.Println(renderTable(
					[]string{"Stage", "Language", "Started", "Finished", "Succeeded", "Failed"},
					runRows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
			}
			return nil
		},
	}
}
