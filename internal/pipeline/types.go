package pipeline

import "time"

// Stage is a phase one world file goes through.
type Stage string

const (
	StageLoad    Stage = "load"    // read, decode and build the world
	StageCache   Stage = "cache"   // plan cache lookup and store
	StageResolve Stage = "resolve" // resolve every call site
	StagePlan    Stage = "plan"    // flatten results into plans
)

// Stages lists the stages in execution order.
var Stages = stageOrder[:]

// Status is where a file is within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one file.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
}

// ProgressSink consumes progress events. Run calls OnEvent from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds the durations of the stages one file, or a whole run, went
// through. The zero value is ready to use.
type Timings struct {
	dur  [len(stageOrder)]time.Duration
	seen uint8 // bit i: stageOrder[i] recorded
}

var stageOrder = [...]Stage{StageLoad, StageCache, StageResolve, StagePlan}

func stageIndex(stage Stage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Set overwrites the duration of stage; unknown stages are ignored.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	i := stageIndex(stage)
	if t == nil || i < 0 {
		return
	}
	t.dur[i] = dur
	t.seen |= 1 << i
}

// Add accumulates other into t.
func (t *Timings) Add(other Timings) {
	if t == nil {
		return
	}
	for i := range t.dur {
		t.dur[i] += other.dur[i]
	}
	t.seen |= other.seen
}

func (t Timings) Has(stage Stage) bool {
	i := stageIndex(stage)
	return i >= 0 && t.seen&(1<<i) != 0
}

func (t Timings) Duration(stage Stage) time.Duration {
	if i := stageIndex(stage); i >= 0 {
		return t.dur[i]
	}
	return 0
}

// Sum adds up the given stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.Duration(stage)
	}
	return total
}
