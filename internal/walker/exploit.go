package walker

import (
	"gridwalk/internal/grid"
)

type Outcome string

const (
	OutcomeReached           Outcome = "reached"
	OutcomeDeadEnd           Outcome = "dead_end"
	OutcomeTooManyIterations Outcome = "too_many_iterations"
)

// Walk is the result of one exploitation run. Map is partial unless
// Outcome is OutcomeReached.
type Walk struct {
	Map     grid.Map
	Steps   int
	Outcome Outcome
}

// Exploit walks greedily from Start along the exploit map, never revisiting
// a cell, and returns the walk map. Both the memory and the exploit map are
// consumed: they are wiped whatever the outcome.
func (e *Engine) Exploit() (Walk, error) {
	if err := e.enter(StateExploiting); err != nil {
		return Walk{}, err
	}

	outcome := e.exploitWalk()
	e.WipeMemoryMap()
	e.WipeExploitMap()
	e.state = StateDone
	e.observer.Exploited(outcome, e.steps)

	return Walk{Map: e.walk.Clone(), Steps: e.steps, Outcome: outcome}, nil
}

func (e *Engine) exploitWalk() Outcome {
	e.walk.Zero()
	e.position = e.start
	e.steps = 0

	limit := e.exploitCap
	visited := make(map[grid.Position]bool, e.shape.Area())
	for {
		e.walk.Set(e.position, float64(e.steps))
		visited[e.position] = true
		if e.position == e.target {
			return OutcomeReached
		}

		next, ok := e.greedyNeighbor(visited)
		if !ok {
			e.logger.Info("exploitation hit a dead end", "position", e.position.String(), "steps", e.steps)
			return OutcomeDeadEnd
		}
		if e.steps >= limit {
			e.logger.Warn("exploitation hit iteration cap", "cap", limit, "position", e.position.String())
			return OutcomeTooManyIterations
		}
		e.position = next
		e.steps++
	}
}

// greedyNeighbor picks the unvisited neighbour with the highest positive
// reinforcement, preferring the earlier neighbour on ties.
func (e *Engine) greedyNeighbor(visited map[grid.Position]bool) (grid.Position, bool) {
	var (
		best  grid.Position
		value float64
		found bool
	)
	for _, n := range e.shape.Neighbors(e.position) {
		if visited[n] {
			continue
		}
		v := e.exploit.At(n)
		if v <= 0 {
			continue
		}
		if !found || v > value {
			best, value, found = n, v, true
		}
	}
	return best, found
}
