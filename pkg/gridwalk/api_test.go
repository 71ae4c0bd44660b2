package gridwalk

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gridwalk/internal/grid"
	"gridwalk/internal/stats"
)

func newTestClient(t *testing.T, storeKind string) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    storeKind,
		DBPath:       filepath.Join(base, "gridwalk.db"),
		ArtifactsDir: filepath.Join(base, "runs"),
		ExportsDir:   filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func TestClientRunRunsShowAndExport(t *testing.T) {
	client, base := newTestClient(t, "memory")
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		Width:        6,
		Height:       6,
		Start:        &Position{X: 1, Y: 1},
		Target:       &Position{X: 4, Y: 4},
		Seed:         42,
		Explorations: 5,
		Charts:       true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Outcome != "reached" || !summary.Reached {
		t.Fatalf("expected reached outcome, got %+v", summary)
	}
	if summary.Manhattan != 6 || summary.WalkSteps < summary.Manhattan {
		t.Fatalf("unexpected walk length: %+v", summary)
	}
	charts, err := os.ReadFile(filepath.Join(summary.ArtifactsDir, stats.ChartsFile))
	if err != nil {
		t.Fatalf("expected charts artifact: %v", err)
	}
	if !strings.Contains(string(charts), "exploit contour") {
		t.Fatal("expected exploit contour chart in charts artifact")
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].Shape != "6x6" {
		t.Fatalf("unexpected runs list: %+v", runs)
	}

	record, err := client.Show(ctx, ShowRequest{Latest: true})
	if err != nil {
		t.Fatalf("show latest: %v", err)
	}
	if record.ID != summary.RunID || record.Start != (grid.Position{X: 1, Y: 1}) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.ExploitMap) != 6 || len(record.WalkMap[0]) != 6 {
		t.Fatalf("unexpected stored maps: %d rows", len(record.ExploitMap))
	}
	if record.WalkMap[4][4] != float64(summary.WalkSteps) {
		t.Fatalf("expected walk map to end at target with %d, got %v", summary.WalkSteps, record.WalkMap[4][4])
	}

	agg, err := client.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if agg.Runs != 1 || agg.Reached != 1 {
		t.Fatalf("unexpected index summary: %+v", agg)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("unexpected exported run: %+v", exported)
	}
	if !strings.HasPrefix(exported.Directory, filepath.Join(base, "exports")) {
		t.Fatalf("unexpected export directory: %s", exported.Directory)
	}
	for _, file := range []string{"config.json", "walk_map.json", stats.ChartsFile} {
		if _, err := os.Stat(filepath.Join(exported.Directory, file)); err != nil {
			t.Fatalf("expected exported %s: %v", file, err)
		}
	}

	var metricsOut bytes.Buffer
	if err := client.WriteMetrics(&metricsOut); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	if !strings.Contains(metricsOut.String(), "gridwalk_exploitations_total") {
		t.Fatalf("expected exploitation metric, got:\n%s", metricsOut.String())
	}
}

func TestClientRenderFormats(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Seed: 3, Explorations: 3, Field: FieldRandom, Borders: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var text bytes.Buffer
	if err := client.Render(ctx, &text, RenderRequest{RunID: summary.RunID, Maps: []string{MapField, MapExploit}}); err != nil {
		t.Fatalf("render terminal: %v", err)
	}
	if !strings.Contains(text.String(), "field map") || !strings.Contains(text.String(), "exploit map") {
		t.Fatalf("unexpected terminal output:\n%s", text.String())
	}
	if !strings.Contains(text.String(), "##") {
		t.Fatalf("expected bordered field walls in output:\n%s", text.String())
	}

	var html bytes.Buffer
	if err := client.Render(ctx, &html, RenderRequest{Latest: true, Format: FormatHTML}); err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(html.String(), "walk map") {
		t.Fatalf("expected walk map chart in html output")
	}

	if err := client.Render(ctx, &html, RenderRequest{Latest: true, Format: "svg"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if err := client.Render(ctx, &html, RenderRequest{Latest: true, Maps: []string{"heat"}}); err == nil {
		t.Fatal("expected unknown map error")
	}
}

func TestClientRunFileFieldCorridor(t *testing.T) {
	client, base := newTestClient(t, "sqlite")
	path := filepath.Join(base, "corridor.txt")
	layout := "######\n#S..T#\n######\n######\n"
	if err := os.WriteFile(path, []byte(layout), 0o644); err != nil {
		t.Fatalf("write field: %v", err)
	}

	summary, err := client.Run(context.Background(), RunRequest{
		Field:        FieldFile,
		FieldPath:    path,
		Seed:         9,
		Explorations: 4,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Start != (grid.Position{X: 1, Y: 1}) || summary.Target != (grid.Position{X: 1, Y: 4}) {
		t.Fatalf("expected start and target from the field file, got %+v", summary)
	}
	if summary.Outcome != "reached" || summary.WalkSteps != 3 {
		t.Fatalf("expected a geodesic corridor walk, got %+v", summary)
	}

	record, err := client.Show(context.Background(), ShowRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if record.Field != FieldFile || record.FieldMap[0][0] != -1 {
		t.Fatalf("unexpected stored field: %+v", record.FieldMap)
	}
}

func TestClientRunRejectsInvalidRequests(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	ctx := context.Background()

	cases := []struct {
		name string
		req  RunRequest
		arg  bool
	}{
		{name: "unknown field", req: RunRequest{Field: "lava"}},
		{name: "missing field file", req: RunRequest{Field: FieldFile}},
		{name: "density", req: RunRequest{Field: FieldMaze, WallDensity: 1.5}, arg: true},
		{name: "negative explorations", req: RunRequest{Explorations: -1}, arg: true},
		{name: "small shape", req: RunRequest{Width: 3, Height: 6}, arg: true},
		{name: "same start and target", req: RunRequest{Start: &Position{X: 2, Y: 2}, Target: &Position{X: 2, Y: 2}}, arg: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Run(ctx, tc.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.arg && !errors.Is(err, grid.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no indexed runs, got %+v", runs)
	}
}

func TestClientRunSelectors(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	ctx := context.Background()

	if _, err := client.Show(ctx, ShowRequest{}); err == nil {
		t.Fatal("expected selector error")
	}
	if _, err := client.Show(ctx, ShowRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected conflicting selector error")
	}
	if _, err := client.Show(ctx, ShowRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
	if _, err := client.Show(ctx, ShowRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected missing run error")
	}
	if _, err := client.Export(ctx, ExportRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs to export")
	}
	if _, err := client.Export(ctx, ExportRequest{RunID: "../etc"}); err == nil {
		t.Fatal("expected invalid run id error")
	}
}

func TestClientRunIsDeterministicPerSeed(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	ctx := context.Background()
	req := RunRequest{Width: 8, Height: 7, Seed: 11, Explorations: 4, Field: FieldMaze, WallDensity: 0.1}

	first, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected distinct run ids")
	}
	first.RunID, second.RunID = "", ""
	first.ArtifactsDir, second.ArtifactsDir = "", ""
	if first != second {
		t.Fatalf("expected identical runs for a fixed seed:\n%+v\n%+v", first, second)
	}
}
