package walker

import (
	"fmt"

	"gridwalk/internal/grid"
	"gridwalk/internal/oracle"
)

// Candidate is one entry of the adjacency map: a neighbouring cell and the
// value the oracle assigned to it.
type Candidate struct {
	Position grid.Position
	Value    float64
}

// ExploreCap is the step bound of a single exploration walk on shape.
func ExploreCap(shape grid.Shape) int {
	limit := 1
	for i := 0; i < ExploreCapExponent; i++ {
		limit *= shape.Area()
	}
	return limit
}

// Explore runs up to explorations random walks from Start towards Target
// and returns the resulting exploit map. It stops early once the kept walk
// is no longer than the Manhattan distance between Start and Target.
func (e *Engine) Explore(o oracle.Oracle, explorations int) (grid.Map, error) {
	if o == nil {
		return grid.Map{}, fmt.Errorf("%w: oracle is required", grid.ErrInvalidArgument)
	}
	if explorations <= 0 {
		return grid.Map{}, fmt.Errorf("%w: explorations must be > 0, got %d", grid.ErrInvalidArgument, explorations)
	}
	if err := e.enter(StateExploring); err != nil {
		return grid.Map{}, err
	}
	defer func() { e.state = StateIdle }()

	if err := e.checkStartAndTarget(o); err != nil {
		return grid.Map{}, err
	}

	geodesic := e.ManhattanDistance()
	for run := 0; run < explorations; run++ {
		e.exploreOnce(o)
		if e.bestLength > 0 && e.bestLength <= geodesic {
			e.logger.Debug("exploration converged", "runs", run+1, "length", e.bestLength)
			break
		}
	}
	return e.exploit.Clone(), nil
}

func (e *Engine) exploreOnce(o oracle.Oracle) {
	e.memory.Zero()
	e.position = e.start
	e.steps = 0

	limit := ExploreCap(e.shape)
	selfLoops := 0
	for e.position != e.target && e.steps <= limit {
		candidates := e.adjacency(o)
		if len(candidates) == 1 && candidates[0].Position == e.position {
			if selfLoops == 0 {
				e.logger.Info("no adjacent position available, staying put",
					"position", e.position.String(), "steps", e.steps)
			}
			selfLoops++
			e.observer.SelfLoop()
		}
		e.position = candidates[e.rng.Intn(len(candidates))].Position
		e.steps++
		e.memory.Set(e.position, float64(e.steps))
	}

	reached := e.position == e.target
	if !reached {
		e.logger.Warn("exploration walk hit iteration cap",
			"exploration", e.explorations+1, "cap", limit, "position", e.position.String())
	}
	e.explorations++
	e.observer.WalkExplored(e.steps, reached)
	e.reinforce()
}

// adjacency queries the oracle for every in-bounds neighbour and drops the
// forbidden ones. With nothing passable it falls back to a self-loop.
func (e *Engine) adjacency(o oracle.Oracle) []Candidate {
	neighbors := e.shape.Neighbors(e.position)
	out := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		value := o.Value(n)
		if oracle.IsForbidden(value) {
			continue
		}
		out = append(out, Candidate{Position: n, Value: value})
	}
	if len(out) == 0 {
		return []Candidate{{Position: e.position, Value: 0}}
	}
	return out
}

// reinforce normalizes the memory map and keeps it as the exploit map when
// none is set yet or when its sum is smaller than the current one. The sum
// stands in for walk length; it is not an exact length comparison.
func (e *Engine) reinforce() {
	peak, _ := e.memory.Max()
	if peak <= 0 {
		return
	}
	candidate := e.memory.Normalized()
	current := e.exploit.Sum()
	if current > 0 && current <= candidate.Sum() {
		return
	}
	_ = e.exploit.CopyFrom(candidate)
	e.bestLength = int(peak)
}
