// Package walker implements the explore/exploit grid agent.
//
// An Engine performs randomized walks from Start to Target to build a
// reinforcement map, then follows that map greedily. The engine owns its
// maps and position exclusively; accessors hand out copies. It is not safe
// for concurrent use.
package walker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"gridwalk/internal/grid"
	"gridwalk/internal/oracle"
)

const (
	// ExploreCapExponent is the power of the map area that bounds the number
	// of steps in a single exploration walk.
	ExploreCapExponent = 2

	DefaultMaxRegenerationAttempts = 1000
)

var (
	ErrBusy           = errors.New("engine busy")
	ErrNoPassableCell = errors.New("no passable start or target")
)

type State int

const (
	StateIdle State = iota
	StateExploring
	StateExploiting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExploring:
		return "exploring"
	case StateExploiting:
		return "exploiting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives engine events. Implementations must not call back into
// the engine.
type Observer interface {
	WalkExplored(steps int, reached bool)
	SelfLoop()
	Exploited(outcome Outcome, steps int)
}

type nopObserver struct{}

func (nopObserver) WalkExplored(int, bool) {}
func (nopObserver) SelfLoop() {}
func (nopObserver) Exploited(Outcome, int) {}

type Engine struct {
	shape    grid.Shape
	start    grid.Position
	target   grid.Position
	position grid.Position

	memory  grid.Map
	exploit grid.Map
	walk    grid.Map

	steps        int
	explorations int
	// bestLength is the length of the walk the exploit map was built from,
	// zero while the exploit map is unset or of unknown origin.
	bestLength int

	state      State
	maxRegen   int
	exploitCap int
	rng        *rand.Rand
	logger     *slog.Logger
	observer   Observer
}

// New builds an engine for shape. Start and target default to random
// interior cells; when supplied they must be inside shape and distinct.
func New(shape grid.Shape, opts ...Option) (*Engine, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	cfg := options{
		seed:     1,
		maxRegen: DefaultMaxRegenerationAttempts,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxRegen <= 0 {
		return nil, fmt.Errorf("%w: max regeneration attempts must be > 0", grid.ErrInvalidArgument)
	}
	if cfg.exploitCap < 0 {
		return nil, fmt.Errorf("%w: exploit cap %d is negative", grid.ErrInvalidArgument, cfg.exploitCap)
	}

	e := &Engine{
		shape:      shape,
		memory:     grid.NewMap(shape),
		exploit:    grid.NewMap(shape),
		walk:       grid.NewMap(shape),
		maxRegen:   cfg.maxRegen,
		exploitCap: cfg.exploitCap,
		rng:        cfg.rng,
		logger:     cfg.logger,
		observer:   cfg.observer,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.seed))
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.exploitCap == 0 {
		e.exploitCap = shape.Area()
	}

	if cfg.start != nil {
		if err := shape.Check(*cfg.start); err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		e.start = *cfg.start
	} else {
		e.start = e.randomInterior()
	}
	if cfg.target != nil {
		if err := shape.Check(*cfg.target); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		e.target = *cfg.target
	} else {
		e.target = e.randomInteriorExcept(e.start)
	}
	if e.start == e.target {
		return nil, fmt.Errorf("%w: start and target are both %s", grid.ErrInvalidArgument, e.start)
	}
	e.position = e.start
	return e, nil
}

func (e *Engine) Shape() grid.Shape { return e.shape }
func (e *Engine) Start() grid.Position { return e.start }
func (e *Engine) Target() grid.Position { return e.target }
func (e *Engine) Position() grid.Position { return e.position }
func (e *Engine) Steps() int { return e.steps }
func (e *Engine) NumExplorations() int { return e.explorations }
func (e *Engine) State() State { return e.state }
func (e *Engine) IsTarget() bool { return e.position == e.target }
func (e *Engine) MemoryMap() grid.Map { return e.memory.Clone() }
func (e *Engine) ExploitMap() grid.Map { return e.exploit.Clone() }
func (e *Engine) WalkMap() grid.Map { return e.walk.Clone() }
func (e *Engine) ManhattanDistance() int { return grid.Manhattan(e.start, e.target) }
func (e *Engine) Neighbors() []grid.Position { return e.shape.Neighbors(e.position) }

func (e *Engine) SetStart(p grid.Position) error {
	if err := e.idle(); err != nil {
		return err
	}
	if err := e.shape.Check(p); err != nil {
		return err
	}
	if p == e.target {
		return fmt.Errorf("%w: start %s equals target", grid.ErrInvalidArgument, p)
	}
	e.start = p
	return nil
}

func (e *Engine) SetTarget(p grid.Position) error {
	if err := e.idle(); err != nil {
		return err
	}
	if err := e.shape.Check(p); err != nil {
		return err
	}
	if p == e.start {
		return fmt.Errorf("%w: target %s equals start", grid.ErrInvalidArgument, p)
	}
	e.target = p
	return nil
}

func (e *Engine) SetPosition(p grid.Position) error {
	if err := e.idle(); err != nil {
		return err
	}
	if err := e.shape.Check(p); err != nil {
		return err
	}
	e.position = p
	return nil
}

// SetExploitMap replaces the reinforcement map. m must match the engine
// shape and hold values in [0,1].
func (e *Engine) SetExploitMap(m grid.Map) error {
	if err := e.idle(); err != nil {
		return err
	}
	if m.Shape() != e.shape {
		return fmt.Errorf("%w: exploit map shape %s, want %s", grid.ErrInvalidArgument, m.Shape(), e.shape)
	}
	if peak, at := m.Max(); peak > 1 {
		return fmt.Errorf("%w: exploit map value %g at %s above 1", grid.ErrInvalidArgument, peak, at)
	}
	if low := m.Min(); low < 0 {
		return fmt.Errorf("%w: exploit map value %g below 0", grid.ErrInvalidArgument, low)
	}
	if err := e.exploit.CopyFrom(m); err != nil {
		return err
	}
	e.bestLength = 0
	return nil
}

func (e *Engine) SetSteps(n int) error {
	if err := e.idle(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: steps %d is negative", grid.ErrInvalidArgument, n)
	}
	e.steps = n
	return nil
}

func (e *Engine) SetExplorations(n int) error {
	if err := e.idle(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: explorations %d is negative", grid.ErrInvalidArgument, n)
	}
	e.explorations = n
	return nil
}

func (e *Engine) ResetPos() {
	e.position = e.start
}

func (e *Engine) WipeExploitMap() {
	e.exploit.Zero()
	e.bestLength = 0
}

func (e *Engine) WipeMemoryMap() {
	e.memory.Zero()
}

func (e *Engine) WipeWalkMap() {
	e.walk.Zero()
}

func (e *Engine) WipeMaps() {
	e.WipeExploitMap()
	e.WipeMemoryMap()
	e.WipeWalkMap()
}

// CheckStartAndTarget re-randomizes a start or target the oracle forbids
// until both are passable and distinct.
func (e *Engine) CheckStartAndTarget(o oracle.Oracle) error {
	if o == nil {
		return fmt.Errorf("%w: oracle is required", grid.ErrInvalidArgument)
	}
	if err := e.idle(); err != nil {
		return err
	}
	return e.checkStartAndTarget(o)
}

func (e *Engine) checkStartAndTarget(o oracle.Oracle) error {
	for attempt := 0; attempt < e.maxRegen; attempt++ {
		if !oracle.Passable(o, e.start) {
			forbidden := e.start
			e.start = e.randomInterior()
			e.position = e.start
			e.logger.Info("start forbidden, regenerated", "forbidden", forbidden.String(), "start", e.start.String())
			continue
		}
		if !oracle.Passable(o, e.target) || e.target == e.start {
			forbidden := e.target
			e.target = e.randomInteriorExcept(e.start)
			e.logger.Info("target forbidden, regenerated", "forbidden", forbidden.String(), "target", e.target.String())
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: start %s target %s after %d attempts", ErrNoPassableCell, e.start, e.target, e.maxRegen)
}

func (e *Engine) randomInterior() grid.Position {
	return grid.Position{
		X: 1 + e.rng.Intn(e.shape.Width-2),
		Y: 1 + e.rng.Intn(e.shape.Height-2),
	}
}

func (e *Engine) randomInteriorExcept(avoid grid.Position) grid.Position {
	for {
		p := e.randomInterior()
		if p != avoid {
			return p
		}
	}
}

func (e *Engine) idle() error {
	if e.state == StateExploring || e.state == StateExploiting {
		return fmt.Errorf("%w: engine is %s", ErrBusy, e.state)
	}
	return nil
}

func (e *Engine) enter(s State) error {
	if err := e.idle(); err != nil {
		return err
	}
	e.state = s
	return nil
}
