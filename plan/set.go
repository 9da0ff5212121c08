package plan

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"github.com/larschri/horisont/observation"
)

// Outcome is the result of planning one point of a set. Exactly one of
// Result and Err is meaningful.
type Outcome struct {
	Result Result
	Err    error
}

// PlanSet plans every point of set and returns one outcome per point in set
// order. A failing point does not stop the others; the caller decides what
// to do with failures.
func (p *Planner) PlanSet(ctx context.Context, set *observation.Set) []Outcome {
	outcomes := make([]Outcome, set.Len())
	it := iter.Iterator[observation.Point]{MaxGoroutines: p.opts.PointWorkers}
	it.ForEachIdx(set.Points, func(i int, point *observation.Point) {
		res, err := p.Plan(ctx, *point)
		outcomes[i] = Outcome{Result: res, Err: err}
	})
	return outcomes
}

// Failed counts the outcomes carrying an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
