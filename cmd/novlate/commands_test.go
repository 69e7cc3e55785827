package main

import (
	"strings"
	"testing"

	"github.com/HanbitLabs/novlate/pipeline"
)

func TestTargetLanguages(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Series.TargetLanguages = []string{"japanese", "taiwanese"}

	langs, err := targetLanguages(cfg, "")
	if err != nil {
		t.Fatalf("targetLanguages failed: %v", err)
	}
	if len(langs) != 2 {
		t.Errorf("Expected all targets, got %v", langs)
	}

	langs, err = targetLanguages(cfg, "ja")
	if err != nil {
		t.Fatalf("targetLanguages with alias failed: %v", err)
	}
	if len(langs) != 1 || langs[0] != "japanese" {
		t.Errorf("Expected [japanese], got %v", langs)
	}

	if _, err := targetLanguages(cfg, "french"); err == nil {
		t.Error("Expected error for unconfigured language")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	want := []string{"split", "glossary", "translate", "qa", "run", "status", "config", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Missing subcommand %q", name)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Stage", "Done"},
		[][]string{{"split", "3"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "split") || !strings.Contains(out, "3") {
		t.Errorf("Unexpected table output:\n%s", out)
	}
}
