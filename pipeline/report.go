package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HanbitLabs/novlate/qa"
)

// writeJSON writes a value as indented JSON, creating parent directories.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// writeStageReport persists a stage result as a durable JSON artifact. The
// "stage_" prefix keeps these summaries out of the namespace used by the full
// QA report (qa_<lang>.json).
func (p *Pipeline) writeStageReport(res *StageResult) error {
	name := "stage_" + res.Stage
	if res.Language != "" {
		name += "_" + res.Language
	}
	return writeJSON(filepath.Join(p.cfg.ReportsDir(), name+".json"), res)
}

// writeQAReport persists the QA report as JSON plus a human-readable text
// summary.
func (p *Pipeline) writeQAReport(report *qa.Report, targetLang string) error {
	data, err := report.JSON()
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(p.cfg.ReportsDir(), "qa_"+targetLang+".json")
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return err
	}
	textPath := filepath.Join(p.cfg.ReportsDir(), "qa_"+targetLang+".txt")
	return os.WriteFile(textPath, []byte(report.Text()), 0o644)
}
