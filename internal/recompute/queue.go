package recompute

import "fmt"

// Stage is one aggregation pass.
type Stage string

// Aggregation stages in dependency order.
const (
	StageCurrency    Stage = "currency"
	StageMaterials   Stage = "materials"
	StageExpenses    Stage = "expenses"
	StageEmployees   Stage = "employees"
	StageRecipes     Stage = "recipes"
	StagePackages    Stage = "packages"
	StageEndProducts Stage = "endproducts"
	StageTotals      Stage = "totals"
)

// Stages lists every stage in the order passes run.
var Stages = []Stage{
	StageCurrency,
	StageMaterials,
	StageExpenses,
	StageEmployees,
	StageRecipes,
	StagePackages,
	StageEndProducts,
	StageTotals,
}

var downstream = map[Stage][]Stage{
	StageCurrency:    {StageMaterials, StagePackages, StageTotals},
	StageMaterials:   {StageRecipes},
	StageExpenses:    {StageTotals},
	StageEmployees:   {StageTotals},
	StageRecipes:     {StageEndProducts},
	StagePackages:    {StageEndProducts},
	StageEndProducts: nil,
	StageTotals:      nil,
}

// Queue tracks which stages are dirty. It is not safe for concurrent use.
type Queue struct {
	dirty map[Stage]bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{dirty: make(map[Stage]bool)}
}

// Enqueue marks the stages and everything downstream of them dirty.
// Unknown stages are a programming error and panic.
func (q *Queue) Enqueue(stages ...Stage) {
	for _, s := range stages {
		if _, ok := downstream[s]; !ok {
			panic(fmt.Sprintf("recompute: unknown stage %q", s))
		}
		q.mark(s)
	}
}

func (q *Queue) mark(s Stage) {
	if q.dirty[s] {
		return
	}
	q.dirty[s] = true
	for _, next := range downstream[s] {
		q.mark(next)
	}
}

// EnqueueAll marks every stage dirty.
func (q *Queue) EnqueueAll() {
	q.Enqueue(Stages...)
}

// Pending returns the dirty stages in run order.
func (q *Queue) Pending() []Stage {
	var out []Stage
	for _, s := range Stages {
		if q.dirty[s] {
			out = append(out, s)
		}
	}
	return out
}

// Drain runs every dirty stage in dependency order and clears it. A stage is cleared before it
// runs, so run may enqueue further work; only stages after the current one are picked up in the
// same drain. It returns the stages that ran.
func (q *Queue) Drain(run func(Stage)) []Stage {
	var ran []Stage
	for _, s := range Stages {
		if !q.dirty[s] {
			continue
		}
		delete(q.dirty, s)
		run(s)
		ran = append(ran, s)
	}
	return ran
}
