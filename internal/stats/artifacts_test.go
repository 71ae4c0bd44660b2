package stats

import (
	"os"
	"path/filepath"
	"testing"

	"gridwalk/internal/grid"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:        runID,
			Shape:        grid.Shape{Width: 4, Height: 4},
			Start:        grid.Position{X: 1, Y: 1},
			Target:       grid.Position{X: 2, Y: 2},
			Field:        "empty",
			Seed:         3,
			Explorations: 4,
		},
		Summary: RunSummary{
			ExplorationsRun: 2,
			Manhattan:       2,
			Outcome:         "reached",
			WalkSteps:       2,
		},
		ExploitMap: [][]float64{{0, 0, 0, 0}, {0, 0, 0.5, 0}, {0, 0, 1, 0}, {0, 0, 0, 0}},
		WalkMap:    [][]float64{{0, 0, 0, 0}, {0, 0, 1, 0}, {0, 0, 2, 0}, {0, 0, 0, 0}},
	}
}

func TestWriteRunArtifactsAndIndex(t *testing.T) {
	base := t.TempDir()
	runDir, err := WriteRunArtifacts(base, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "summary.json", "exploit_map.json", "walk_map.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}
	if _, err := os.Stat(filepath.Join(runDir, "field_map.json")); !os.IsNotExist(err) {
		t.Fatalf("expected no field map artifact, got err=%v", err)
	}

	cfg, ok, err := ReadRunConfig(base, "run-1")
	if err != nil || !ok {
		t.Fatalf("read run config ok=%t err=%v", ok, err)
	}
	if cfg.Seed != 3 || cfg.Target != (grid.Position{X: 2, Y: 2}) {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	summary, ok, err := ReadRunSummary(base, "run-1")
	if err != nil || !ok {
		t.Fatalf("read run summary ok=%t err=%v", ok, err)
	}
	if summary.Outcome != "reached" || summary.WalkSteps != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, ok, err := ReadRunConfig(base, "missing"); ok || err != nil {
		t.Fatalf("expected missing config, ok=%t err=%v", ok, err)
	}

	if _, err := WriteRunArtifacts(base, RunArtifacts{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestRunIndexOrderingAndReplace(t *testing.T) {
	base := t.TempDir()
	entries := []RunIndexEntry{
		{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", Outcome: "reached"},
		{RunID: "b", CreatedAtUTC: "2026-01-03T00:00:00Z", Outcome: "dead_end"},
		{RunID: "c", CreatedAtUTC: "2026-01-03T00:00:00Z", Outcome: "reached"},
	}
	for _, e := range entries {
		if err := AppendRunIndex(base, e); err != nil {
			t.Fatalf("append %s: %v", e.RunID, err)
		}
	}

	index, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 3 || index[0].RunID != "c" || index[1].RunID != "b" || index[2].RunID != "a" {
		t.Fatalf("unexpected index order: %+v", index)
	}

	if err := AppendRunIndex(base, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", Outcome: "too_many_iterations"}); err != nil {
		t.Fatalf("replace a: %v", err)
	}
	index, err = ListRunIndex(base)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 3 || index[2].Outcome != "too_many_iterations" {
		t.Fatalf("expected replaced entry, got %+v", index)
	}

	if err := AppendRunIndex(base, RunIndexEntry{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestRunIndexOrdersSubSecondTimestamps(t *testing.T) {
	base := t.TempDir()
	if err := AppendRunIndex(base, RunIndexEntry{RunID: "b-newer", CreatedAtUTC: "2026-03-01T13:00:00.15Z"}); err != nil {
		t.Fatalf("append newer: %v", err)
	}
	if err := AppendRunIndex(base, RunIndexEntry{RunID: "a-older", CreatedAtUTC: "2026-03-01T13:00:00.1Z"}); err != nil {
		t.Fatalf("append older: %v", err)
	}

	index, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 2 || index[0].RunID != "b-newer" || index[1].RunID != "a-older" {
		t.Fatalf("expected newest first, got %+v", index)
	}
}

func TestListRunIndexMissingFile(t *testing.T) {
	index, err := ListRunIndex(filepath.Join(t.TempDir(), "nothing"))
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("expected empty index, got %+v", index)
	}
}

func TestExportRunArtifactsCopiesOptionalFiles(t *testing.T) {
	base := t.TempDir()
	runDir, err := WriteRunArtifacts(base, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, ChartsFile), []byte("<html></html>"), 0o644); err != nil {
		t.Fatalf("write charts: %v", err)
	}

	out := t.TempDir()
	dst, err := ExportRunArtifacts(base, "run-1", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, file := range []string{"config.json", "walk_map.json", ChartsFile} {
		if _, err := os.Stat(filepath.Join(dst, file)); err != nil {
			t.Fatalf("expected exported %s: %v", file, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, MetricsFile)); !os.IsNotExist(err) {
		t.Fatalf("unexpected metrics export, err=%v", err)
	}

	if _, err := ExportRunArtifacts(base, "missing", out); err == nil {
		t.Fatal("expected missing run error")
	}
	if _, err := ExportRunArtifacts(filepath.Join(base, "run-1"), "..", out); err == nil {
		t.Fatal("expected parent directory run id to be rejected")
	}
	if _, err := os.Stat(filepath.Join(out, "..", "config.json")); !os.IsNotExist(err) {
		t.Fatalf("unexpected export outside the output directory, err=%v", err)
	}
}

func TestRunDirRejectsPathSeparators(t *testing.T) {
	if _, err := RunDir("base", "../escape"); err == nil {
		t.Fatal("expected invalid run id error")
	}
	if _, err := RunDir("base", " "); err == nil {
		t.Fatal("expected empty run id error")
	}
	for _, id := range []string{".", "..", " .. "} {
		if _, err := RunDir("base", id); err == nil {
			t.Fatalf("expected invalid run id error for %q", id)
		}
	}
	dir, err := RunDir("base", "run-1")
	if err != nil {
		t.Fatalf("run dir: %v", err)
	}
	if dir != filepath.Join("base", "run-1") {
		t.Fatalf("unexpected run dir: %s", dir)
	}
}

func TestSummarizeIndex(t *testing.T) {
	summary := SummarizeIndex([]RunIndexEntry{
		{Outcome: "reached", Manhattan: 6, WalkSteps: 6},
		{Outcome: "reached", Manhattan: 6, WalkSteps: 10},
		{Outcome: "dead_end", Manhattan: 4, WalkSteps: 3},
		{Outcome: "reached", Manhattan: 2, WalkSteps: 4},
	})
	if summary.Runs != 4 || summary.Reached != 3 || summary.Optimal != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.SuccessRate != 0.75 {
		t.Fatalf("unexpected success rate: %f", summary.SuccessRate)
	}
	if summary.MeanExcess != 2 {
		t.Fatalf("unexpected mean excess: %f", summary.MeanExcess)
	}
	if summary.StdExcess < 1.63 || summary.StdExcess > 1.64 {
		t.Fatalf("unexpected std excess: %f", summary.StdExcess)
	}

	empty := SummarizeIndex(nil)
	if empty.Runs != 0 || empty.SuccessRate != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}
