package walker

import (
	"log/slog"
	"math/rand"

	"gridwalk/internal/grid"
)

type options struct {
	start      *grid.Position
	target     *grid.Position
	seed       int64
	rng        *rand.Rand
	maxRegen   int
	exploitCap int
	logger     *slog.Logger
	observer   Observer
}

type Option func(*options)

func WithStart(p grid.Position) Option {
	return func(o *options) { o.start = &p }
}

func WithTarget(p grid.Position) Option {
	return func(o *options) { o.target = &p }
}

// WithSeed seeds the engine's private random source. Ignored when WithRand
// is also given.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

func WithMaxRegenerationAttempts(n int) Option {
	return func(o *options) { o.maxRegen = n }
}

// WithExploitCap bounds the number of steps of an exploitation walk. The
// default is the map area.
func WithExploitCap(n int) Option {
	return func(o *options) { o.exploitCap = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}
