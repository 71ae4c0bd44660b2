package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gridwalk/internal/grid"
	"gridwalk/internal/model"
)

const runIndexFile = "run_index.json"

const (
	configFile     = "config.json"
	summaryFile    = "summary.json"
	exploitMapFile = "exploit_map.json"
	walkMapFile    = "walk_map.json"
	fieldMapFile   = "field_map.json"
)

// Optional artifacts written next to the run files by other components.
const (
	ChartsFile  = "maps.html"
	MetricsFile = "metrics.prom"
)

type RunConfig struct {
	RunID        string        `json:"run_id"`
	Shape        grid.Shape    `json:"shape"`
	Start        grid.Position `json:"start"`
	Target       grid.Position `json:"target"`
	Field        string        `json:"field"`
	FieldPath    string        `json:"field_path,omitempty"`
	Borders      bool          `json:"borders"`
	WallDensity  float64       `json:"wall_density,omitempty"`
	Seed         int64         `json:"seed"`
	Explorations int           `json:"explorations"`
}

type RunSummary struct {
	ExplorationsRun int    `json:"explorations_run"`
	ExploreSteps    int    `json:"explore_steps"`
	Manhattan       int    `json:"manhattan"`
	Outcome         string `json:"outcome"`
	WalkSteps       int    `json:"walk_steps"`
}

type RunArtifacts struct {
	Config     RunConfig   `json:"config"`
	Summary    RunSummary  `json:"summary"`
	ExploitMap [][]float64 `json:"exploit_map"`
	WalkMap    [][]float64 `json:"walk_map"`
	FieldMap   [][]float64 `json:"field_map,omitempty"`
}

type RunIndexEntry struct {
	RunID        string `json:"run_id"`
	Shape        string `json:"shape"`
	Field        string `json:"field"`
	Seed         int64  `json:"seed"`
	Explorations int    `json:"explorations"`
	Manhattan    int    `json:"manhattan"`
	Outcome      string `json:"outcome"`
	WalkSteps    int    `json:"walk_steps"`
	CreatedAtUTC string `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runDir, err := RunDir(baseDir, artifacts.Config.RunID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, exploitMapFile), artifacts.ExploitMap); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, walkMapFile), artifacts.WalkMap); err != nil {
		return "", err
	}
	if artifacts.FieldMap != nil {
		if err := writeJSON(filepath.Join(runDir, fieldMapFile), artifacts.FieldMap); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if c := model.CompareTimestamps(indexed[i].entry.CreatedAtUTC, indexed[j].entry.CreatedAtUTC); c != 0 {
			return c > 0
		}
		// Prefer later appended entries for equal timestamps.
		return indexed[i].idx > indexed[j].idx
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	src, err := RunDir(baseDir, runID)
	if err != nil {
		return "", err
	}
	runID = filepath.Base(src)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, summaryFile, exploitMapFile, walkMapFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{fieldMapFile, ChartsFile, MetricsFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	var summary RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

// RunDir returns the artifact directory of runID, validating the id.
func RunDir(baseDir, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(baseDir, runID), nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
