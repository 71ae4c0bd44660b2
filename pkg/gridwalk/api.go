package gridwalk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"gridwalk/internal/field"
	"gridwalk/internal/grid"
	"gridwalk/internal/metrics"
	"gridwalk/internal/model"
	"gridwalk/internal/render"
	"gridwalk/internal/stats"
	"gridwalk/internal/storage"
	"gridwalk/internal/walker"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "gridwalk.db"

	defaultWidth        = 6
	defaultHeight       = 6
	defaultExplorations = 10
	defaultWallDensity  = 0.2
	defaultRunsLimit    = 20
)

const (
	FieldEmpty  = "empty"
	FieldRandom = "random"
	FieldMaze   = "maze"
	FieldFile   = "file"
)

const (
	MapExploit = "exploit"
	MapWalk    = "walk"
	MapMemory  = "memory"
	MapField   = "field"
)

const (
	FormatTerminal = "terminal"
	FormatHTML     = "html"
)

type Position = grid.Position

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
	// Registerer receives the engine metrics. A private registry is used
	// when nil.
	Registerer prometheus.Registerer
}

type Client struct {
	store    storage.Store
	logger   *slog.Logger
	recorder *metrics.Recorder
	gatherer prometheus.Gatherer

	artifactsDir string
	exportsDir   string
	initialized  bool
}

type RunRequest struct {
	Width        int
	Height       int
	Start        *Position
	Target       *Position
	Seed         int64
	Explorations int
	Field        string
	FieldPath    string
	Borders      bool
	WallDensity  float64
	// Charts writes an HTML heatmap page next to the run artifacts.
	Charts bool
}

type RunSummary struct {
	RunID           string
	ArtifactsDir    string
	Start           Position
	Target          Position
	Manhattan       int
	ExplorationsRun int
	ExploreSteps    int
	Outcome         string
	Reached         bool
	WalkSteps       int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Shape        string
	Field        string
	Seed         int64
	Explorations int
	Manhattan    int
	Outcome      string
	WalkSteps    int
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type RenderRequest struct {
	RunID  string
	Latest bool
	Maps   []string
	Format string
	Colors bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := opts.Registerer
	var gatherer prometheus.Gatherer
	if reg == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		recorder:     metrics.NewRecorder(reg),
		gatherer:     gatherer,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(c.artifactsDir, 0o755); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// WriteMetrics dumps the client's engine metrics in text exposition format.
func (c *Client) WriteMetrics(w io.Writer) error {
	if c.gatherer == nil {
		return errors.New("metrics registerer does not support gathering")
	}
	return metrics.WriteText(w, c.gatherer)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Width == 0 {
		req.Width = defaultWidth
	}
	if req.Height == 0 {
		req.Height = defaultHeight
	}
	if req.Explorations == 0 {
		req.Explorations = defaultExplorations
	}
	if req.Field == "" {
		req.Field = FieldEmpty
	}
	if req.Field == FieldMaze && req.WallDensity == 0 {
		req.WallDensity = defaultWallDensity
	}
	if req.Explorations < 0 {
		return RunSummary{}, fmt.Errorf("%w: explorations must be positive, got %d", grid.ErrInvalidArgument, req.Explorations)
	}
	if req.WallDensity < 0 || req.WallDensity >= 1 {
		return RunSummary{}, fmt.Errorf("%w: wall density must be in [0,1), got %g", grid.ErrInvalidArgument, req.WallDensity)
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	env, start, target, err := buildField(req, rng)
	if err != nil {
		return RunSummary{}, err
	}
	shape := env.Shape()

	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	engineOpts := []walker.Option{
		walker.WithRand(rng),
		walker.WithLogger(logger),
		walker.WithObserver(c.recorder),
	}
	if start != nil {
		engineOpts = append(engineOpts, walker.WithStart(*start))
	}
	if target != nil {
		engineOpts = append(engineOpts, walker.WithTarget(*target))
	}
	engine, err := walker.New(shape, engineOpts...)
	if err != nil {
		return RunSummary{}, err
	}

	if err := ctx.Err(); err != nil {
		return RunSummary{}, err
	}
	logger.Info("exploring", "shape", shape.String(), "field", req.Field, "explorations", req.Explorations)
	exploitMap, err := engine.Explore(env, req.Explorations)
	if err != nil {
		return RunSummary{}, err
	}
	memoryMap := engine.MemoryMap()
	exploreSteps := engine.Steps()

	if err := ctx.Err(); err != nil {
		return RunSummary{}, err
	}
	walk, err := engine.Exploit()
	if err != nil {
		return RunSummary{}, err
	}
	logger.Info("exploited", "outcome", string(walk.Outcome), "steps", walk.Steps, "manhattan", engine.ManhattanDistance())

	now := time.Now()
	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CreatedAtUTC:    model.FormatTimestamp(now),
		Shape:           shape,
		Start:           engine.Start(),
		Target:          engine.Target(),
		Field:           req.Field,
		Seed:            req.Seed,
		Explorations:    req.Explorations,
		ExplorationsRun: engine.NumExplorations(),
		ExploreSteps:    exploreSteps,
		Manhattan:       engine.ManhattanDistance(),
		Outcome:         string(walk.Outcome),
		WalkSteps:       walk.Steps,
		FieldMap:        env.Map().Rows(),
		ExploitMap:      exploitMap.Rows(),
		MemoryMap:       memoryMap.Rows(),
		WalkMap:         walk.Map.Rows(),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        runID,
			Shape:        shape,
			Start:        record.Start,
			Target:       record.Target,
			Field:        req.Field,
			FieldPath:    req.FieldPath,
			Borders:      req.Borders,
			WallDensity:  req.WallDensity,
			Seed:         req.Seed,
			Explorations: req.Explorations,
		},
		Summary: stats.RunSummary{
			ExplorationsRun: record.ExplorationsRun,
			ExploreSteps:    record.ExploreSteps,
			Manhattan:       record.Manhattan,
			Outcome:         record.Outcome,
			WalkSteps:       record.WalkSteps,
		},
		ExploitMap: record.ExploitMap,
		WalkMap:    record.WalkMap,
		FieldMap:   record.FieldMap,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if req.Charts {
		if err := writeCharts(filepath.Join(runDir, stats.ChartsFile), record); err != nil {
			return RunSummary{}, err
		}
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        runID,
		Shape:        shape.String(),
		Field:        req.Field,
		Seed:         req.Seed,
		Explorations: req.Explorations,
		Manhattan:    record.Manhattan,
		Outcome:      record.Outcome,
		WalkSteps:    record.WalkSteps,
		CreatedAtUTC: record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:           runID,
		ArtifactsDir:    runDir,
		Start:           record.Start,
		Target:          record.Target,
		Manhattan:       record.Manhattan,
		ExplorationsRun: record.ExplorationsRun,
		ExploreSteps:    record.ExploreSteps,
		Outcome:         record.Outcome,
		Reached:         record.Reached(),
		WalkSteps:       record.WalkSteps,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Shape:        e.Shape,
			Field:        e.Field,
			Seed:         e.Seed,
			Explorations: e.Explorations,
			Manhattan:    e.Manhattan,
			Outcome:      e.Outcome,
			WalkSteps:    e.WalkSteps,
		})
	}
	return out, nil
}

// Summary aggregates every indexed run.
func (c *Client) Summary(_ context.Context) (stats.IndexSummary, error) {
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return stats.IndexSummary{}, err
	}
	return stats.SummarizeIndex(entries), nil
}

func (c *Client) Show(ctx context.Context, req ShowRequest) (model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	return c.resolveRun(ctx, req.RunID, req.Latest)
}

// Render draws the requested maps of a stored run to w.
func (c *Client) Render(ctx context.Context, w io.Writer, req RenderRequest) error {
	if len(req.Maps) == 0 {
		req.Maps = []string{MapExploit, MapWalk}
	}
	if req.Format == "" {
		req.Format = FormatTerminal
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	record, err := c.resolveRun(ctx, req.RunID, req.Latest)
	if err != nil {
		return err
	}

	switch req.Format {
	case FormatTerminal:
		return renderMaps(render.NewTerminal(w, req.Colors), record, req.Maps)
	case FormatHTML:
		page := render.NewPage("gridwalk run " + record.ID)
		if err := renderMaps(page, record, req.Maps); err != nil {
			return err
		}
		return page.Write(w)
	default:
		return fmt.Errorf("unsupported render format: %s", req.Format)
	}
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}
	if _, err := stats.RunDir(c.artifactsDir, runID); err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRun(ctx context.Context, runID string, latest bool) (model.RunRecord, error) {
	if runID != "" && latest {
		return model.RunRecord{}, errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return model.RunRecord{}, errors.New("run id or latest is required")
	}
	if latest {
		runs, err := c.store.ListRuns(ctx, 1)
		if err != nil {
			return model.RunRecord{}, err
		}
		if len(runs) == 0 {
			return model.RunRecord{}, errors.New("no runs available")
		}
		return runs[0], nil
	}

	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return record, nil
}

func buildField(req RunRequest, rng *rand.Rand) (*field.Field, *Position, *Position, error) {
	start, target := req.Start, req.Target
	if req.Field == FieldFile {
		if req.FieldPath == "" {
			return nil, nil, nil, errors.New("file field requires a field path")
		}
		f, err := os.Open(req.FieldPath)
		if err != nil {
			return nil, nil, nil, err
		}
		defer f.Close()
		layout, err := field.Parse(f)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse field %s: %w", req.FieldPath, err)
		}
		if start == nil {
			start = layout.Start
		}
		if target == nil {
			target = layout.Target
		}
		if req.Borders {
			layout.Field.PlaceBorders()
		}
		return layout.Field, start, target, nil
	}

	shape := grid.Shape{Width: req.Width, Height: req.Height}
	var (
		env *field.Field
		err error
	)
	switch strings.ToLower(req.Field) {
	case FieldEmpty:
		env, err = field.NewEmpty(shape, req.Borders)
	case FieldRandom:
		env, err = field.NewRandom(shape, rng, req.Borders)
	case FieldMaze:
		var keep []grid.Position
		if start != nil {
			keep = append(keep, *start)
		}
		if target != nil {
			keep = append(keep, *target)
		}
		env, err = field.NewMaze(shape, rng, req.WallDensity, keep...)
	default:
		return nil, nil, nil, fmt.Errorf("unsupported field kind: %s", req.Field)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return env, start, target, nil
}

func renderMaps(r render.Renderer, record model.RunRecord, names []string) error {
	for _, name := range names {
		rows, err := recordMap(record, name)
		if err != nil {
			return err
		}
		m, err := grid.FromRows(rows)
		if err != nil {
			return fmt.Errorf("%s map: %w", name, err)
		}
		if err := r.Render(name+" map", m); err != nil {
			return err
		}
	}
	return nil
}

func recordMap(record model.RunRecord, name string) ([][]float64, error) {
	switch name {
	case MapExploit:
		return record.ExploitMap, nil
	case MapWalk:
		return record.WalkMap, nil
	case MapMemory:
		return record.MemoryMap, nil
	case MapField:
		return record.FieldMap, nil
	default:
		return nil, fmt.Errorf("unknown map: %s", name)
	}
}

func writeCharts(path string, record model.RunRecord) error {
	page := render.NewPage("gridwalk run " + record.ID)
	if err := renderMaps(page, record, []string{MapField, MapExploit, MapMemory, MapWalk}); err != nil {
		return err
	}
	exploit, err := grid.FromRows(record.ExploitMap)
	if err != nil {
		return fmt.Errorf("exploit map: %w", err)
	}
	if err := page.Contour("exploit contour", exploit, render.DefaultContourLevels); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Write(f)
}
