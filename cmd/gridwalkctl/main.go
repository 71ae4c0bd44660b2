package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"gridwalk/internal/field"
	"gridwalk/internal/grid"
	"gridwalk/internal/model"
	"gridwalk/internal/stats"
	"gridwalk/internal/storage"
	"gridwalk/pkg/gridwalk"
)

const (
	defaultDBPath = "gridwalk.db"
	artifactsDir  = "runs"
	exportsDir    = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type clientFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", artifactsDir, "run artifacts directory"),
		logLevel:     fs.String("log-level", "warn", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) client() (*gridwalk.Client, error) {
	logger, err := newLogger(os.Stderr, *f.logLevel)
	if err != nil {
		return nil, err
	}
	return gridwalk.New(gridwalk.Options{
		StoreKind:    *f.storeKind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
		ExportsDir:   exportsDir,
		Logger:       logger,
	})
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := addClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s artifacts=%s\n", *common.storeKind, filepath.Clean(*common.artifactsDir))
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := addClientFlags(fs)
	configPath := fs.String("config", "", "optional run config path (YAML or JSON)")
	flags := runFlags{
		width:        fs.Int("width", 6, "grid width (rows)"),
		height:       fs.Int("height", 6, "grid height (columns)"),
		start:        fs.String("start", "", "start position x,y (random interior cell when empty)"),
		target:       fs.String("target", "", "target position x,y (random interior cell when empty)"),
		seed:         fs.Int64("seed", 1, "rng seed"),
		explorations: fs.Int("explorations", 10, "exploration walks"),
		field:        fs.String("field", gridwalk.FieldEmpty, "field kind: empty|random|maze|file"),
		fieldPath:    fs.String("field-path", "", "ASCII field path for --field file"),
		borders:      fs.Bool("borders", false, "wall the outermost ring of the field"),
		wallDensity:  fs.Float64("density", 0.2, "interior wall probability for --field maze"),
		charts:       fs.Bool("charts", false, "write an HTML heatmap page with the run artifacts"),
	}
	metricsOut := fs.String("metrics-out", "", "write engine metrics in Prometheus text format to this path")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req gridwalk.RunRequest
	if *configPath != "" {
		cfg, err := loadRunConfig(*configPath)
		if err != nil {
			return err
		}
		cfg.apply(&req)
		if err := flags.apply(&req, setFlags); err != nil {
			return err
		}
	} else if err := flags.apply(&req, nil); err != nil {
		return err
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := writeMetricsFile(client, filepath.Join(summary.ArtifactsDir, stats.MetricsFile)); err != nil {
		return err
	}
	if *metricsOut != "" {
		if err := writeMetricsFile(client, *metricsOut); err != nil {
			return err
		}
	}

	if *jsonOut {
		type runOutput struct {
			RunID           string        `json:"run_id"`
			ArtifactsDir    string        `json:"artifacts_dir"`
			Start           grid.Position `json:"start"`
			Target          grid.Position `json:"target"`
			Manhattan       int           `json:"manhattan"`
			ExplorationsRun int           `json:"explorations_run"`
			ExploreSteps    int           `json:"explore_steps"`
			Outcome         string        `json:"outcome"`
			Reached         bool          `json:"reached"`
			WalkSteps       int           `json:"walk_steps"`
		}
		return writeJSONOut(os.Stdout, runOutput{
			RunID:           summary.RunID,
			ArtifactsDir:    summary.ArtifactsDir,
			Start:           summary.Start,
			Target:          summary.Target,
			Manhattan:       summary.Manhattan,
			ExplorationsRun: summary.ExplorationsRun,
			ExploreSteps:    summary.ExploreSteps,
			Outcome:         summary.Outcome,
			Reached:         summary.Reached,
			WalkSteps:       summary.WalkSteps,
		})
	}

	fmt.Printf("run_id=%s start=%s target=%s manhattan=%d explorations=%d explore_steps=%s outcome=%s walk_steps=%d\n",
		summary.RunID,
		summary.Start,
		summary.Target,
		summary.Manhattan,
		summary.ExplorationsRun,
		humanize.Comma(int64(summary.ExploreSteps)),
		summary.Outcome,
		summary.WalkSteps,
	)
	fmt.Printf("artifacts=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addClientFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	showSummary := fs.Bool("summary", false, "print aggregate statistics over all indexed runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *showSummary {
		summary, err := client.Summary(ctx)
		if err != nil {
			return err
		}
		if *jsonOut {
			return writeJSONOut(os.Stdout, summary)
		}
		fmt.Printf("runs=%s reached=%s success_rate=%.3f optimal=%d mean_excess=%.3f std_excess=%.3f\n",
			humanize.Comma(int64(summary.Runs)),
			humanize.Comma(int64(summary.Reached)),
			summary.SuccessRate,
			summary.Optimal,
			summary.MeanExcess,
			summary.StdExcess,
		)
		return nil
	}

	items, err := client.Runs(ctx, gridwalk.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID        string `json:"run_id"`
			CreatedAtUTC string `json:"created_at_utc"`
			Shape        string `json:"shape"`
			Field        string `json:"field"`
			Seed         int64  `json:"seed"`
			Explorations int    `json:"explorations"`
			Manhattan    int    `json:"manhattan"`
			Outcome      string `json:"outcome"`
			WalkSteps    int    `json:"walk_steps"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem(item))
		}
		return writeJSONOut(os.Stdout, out)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created=%s shape=%s field=%s seed=%d explorations=%d manhattan=%d outcome=%s walk_steps=%d\n",
			item.RunID,
			createdDisplay(item.CreatedAtUTC),
			item.Shape,
			item.Field,
			item.Seed,
			item.Explorations,
			item.Manhattan,
			item.Outcome,
			item.WalkSteps,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	common := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run")
	jsonOut := fs.Bool("json", false, "emit the full run record as JSON")
	ascii := fs.Bool("ascii", false, "print the run field as an ASCII map")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("show requires --run-id or --latest")
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.Show(ctx, gridwalk.ShowRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSONOut(os.Stdout, record)
	}

	fmt.Printf("run_id=%s created=%s shape=%s field=%s seed=%d\n",
		record.ID, createdDisplay(record.CreatedAtUTC), record.Shape, record.Field, record.Seed)
	fmt.Printf("start=%s target=%s manhattan=%d\n", record.Start, record.Target, record.Manhattan)
	fmt.Printf("explorations=%d/%d explore_steps=%s outcome=%s walk_steps=%d\n",
		record.ExplorationsRun,
		record.Explorations,
		humanize.Comma(int64(record.ExploreSteps)),
		record.Outcome,
		record.WalkSteps,
	)
	if *ascii {
		return printField(os.Stdout, record)
	}
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "render the most recent run")
	maps := fs.String("maps", "exploit,walk", "comma-separated maps: exploit|walk|memory|field")
	format := fs.String("format", gridwalk.FormatTerminal, "output format: terminal|html")
	outPath := fs.String("out", "", "output path (stdout when empty)")
	colorMode := fs.String("color", "auto", "terminal colours: auto|always|never")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("render requires --run-id or --latest")
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	colors, err := useColors(*colorMode, out)
	if err != nil {
		return err
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	return client.Render(ctx, out, gridwalk.RenderRequest{
		RunID:  *runID,
		Latest: *latest,
		Maps:   splitList(*maps),
		Format: *format,
		Colors: colors,
	})
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, gridwalk.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: gridwalkctl <init|run|runs|show|render|export> [flags]", msg)
}

func parsePosition(raw string) (grid.Position, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return grid.Position{}, fmt.Errorf("invalid position %q: want x,y", raw)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return grid.Position{}, fmt.Errorf("invalid position %q: %w", raw, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return grid.Position{}, fmt.Errorf("invalid position %q: %w", raw, err)
	}
	return grid.Position{X: x, Y: y}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func useColors(mode string, out *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		fd := out.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	default:
		return false, fmt.Errorf("unsupported color mode: %s", mode)
	}
}

func createdDisplay(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return strconv.Quote(humanize.Time(created))
}

func printField(w io.Writer, record model.RunRecord) error {
	values, err := grid.FromRows(record.FieldMap)
	if err != nil {
		return fmt.Errorf("field map: %w", err)
	}
	f, err := field.FromMap(values)
	if err != nil {
		return err
	}
	start, target := record.Start, record.Target
	return field.Format(w, f, &start, &target)
}

func writeMetricsFile(client *gridwalk.Client, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return client.WriteMetrics(f)
}

func writeJSONOut(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
