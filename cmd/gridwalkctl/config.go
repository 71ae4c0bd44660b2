package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"gridwalk/internal/grid"
	"gridwalk/pkg/gridwalk"
)

// runConfig is the on-disk form of a run request. Absent keys leave the
// request untouched.
type runConfig struct {
	Width        *int           `yaml:"width"`
	Height       *int           `yaml:"height"`
	Start        *grid.Position `yaml:"start"`
	Target       *grid.Position `yaml:"target"`
	Seed         *int64         `yaml:"seed"`
	Explorations *int           `yaml:"explorations"`
	Field        *string        `yaml:"field"`
	FieldPath    *string        `yaml:"field_path"`
	Borders      *bool          `yaml:"borders"`
	WallDensity  *float64       `yaml:"wall_density"`
	Charts       *bool          `yaml:"charts"`
}

func loadRunConfig(path string) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, err
	}

	var cfg runConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return runConfig{}, nil
		}
		return runConfig{}, fmt.Errorf("decode run config %s: %w", path, err)
	}
	return cfg, nil
}

func (c runConfig) apply(req *gridwalk.RunRequest) {
	if c.Width != nil {
		req.Width = *c.Width
	}
	if c.Height != nil {
		req.Height = *c.Height
	}
	if c.Start != nil {
		p := *c.Start
		req.Start = &p
	}
	if c.Target != nil {
		p := *c.Target
		req.Target = &p
	}
	if c.Seed != nil {
		req.Seed = *c.Seed
	}
	if c.Explorations != nil {
		req.Explorations = *c.Explorations
	}
	if c.Field != nil {
		req.Field = *c.Field
	}
	if c.FieldPath != nil {
		req.FieldPath = *c.FieldPath
	}
	if c.Borders != nil {
		req.Borders = *c.Borders
	}
	if c.WallDensity != nil {
		req.WallDensity = *c.WallDensity
	}
	if c.Charts != nil {
		req.Charts = *c.Charts
	}
}

type runFlags struct {
	width        *int
	height       *int
	start        *string
	target       *string
	seed         *int64
	explorations *int
	field        *string
	fieldPath    *string
	borders      *bool
	wallDensity  *float64
	charts       *bool
}

// apply copies flag values into req. With a non-nil set only the flags named
// in it are copied.
func (f runFlags) apply(req *gridwalk.RunRequest, set map[string]bool) error {
	use := func(name string) bool {
		return set == nil || set[name]
	}

	if use("width") {
		req.Width = *f.width
	}
	if use("height") {
		req.Height = *f.height
	}
	if use("start") && *f.start != "" {
		p, err := parsePosition(*f.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		req.Start = &p
	}
	if use("target") && *f.target != "" {
		p, err := parsePosition(*f.target)
		if err != nil {
			return fmt.Errorf("--target: %w", err)
		}
		req.Target = &p
	}
	if use("seed") {
		req.Seed = *f.seed
	}
	if use("explorations") {
		req.Explorations = *f.explorations
	}
	if use("field") {
		req.Field = *f.field
	}
	if use("field-path") {
		req.FieldPath = *f.fieldPath
	}
	if use("borders") {
		req.Borders = *f.borders
	}
	if use("density") {
		req.WallDensity = *f.wallDensity
	}
	if use("charts") {
		req.Charts = *f.charts
	}
	return nil
}
