package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StartupTrace records milestones from process start to the first loaded
// tree. It only records when created with a debug or trace level.
type StartupTrace struct {
	mu         sync.Mutex
	t0         time.Time
	now        func() time.Time
	milestones []Milestone
	enabled    bool
	logger     *zerolog.Logger
	finished   bool
}

// Milestone is one timing checkpoint.
type Milestone struct {
	Name    string
	Elapsed time.Duration // since start
	Delta   time.Duration // since the previous milestone
}

// NewStartupTrace starts a trace. Milestones are logged at debug level.
func NewStartupTrace(logLevel string, logger *zerolog.Logger) *StartupTrace {
	lvl := ParseLevel(logLevel)
	return &StartupTrace{
		t0:      time.Now(),
		now:     time.Now,
		enabled: lvl <= zerolog.DebugLevel && lvl != zerolog.NoLevel,
		logger:  logger,
	}
}

// Mark records a milestone.
func (st *StartupTrace) Mark(name string) {
	if st == nil || !st.enabled {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.finished {
		return
	}

	elapsed := st.now().Sub(st.t0)
	var delta time.Duration
	if n := len(st.milestones); n > 0 {
		delta = elapsed - st.milestones[n-1].Elapsed
	}
	m := Milestone{Name: name, Elapsed: elapsed, Delta: delta}
	st.milestones = append(st.milestones, m)

	if st.logger != nil {
		st.logger.Debug().
			Str("milestone", m.Name).
			Int64("t_ms", m.Elapsed.Milliseconds()).
			Int64("delta_ms", m.Delta.Milliseconds()).
			Msg("startup_trace")
	}
}

// Finish records the final milestone and logs a summary. Later calls and
// marks are ignored.
func (st *StartupTrace) Finish(name string) {
	if st == nil || !st.enabled {
		return
	}
	st.Mark(name)

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.finished {
		return
	}
	st.finished = true
	if st.logger == nil {
		return
	}

	parts := make([]string, len(st.milestones))
	for i, m := range st.milestones {
		parts[i] = fmt.Sprintf("%s:%d", m.Name, m.Elapsed.Milliseconds())
	}
	st.logger.Info().
		Int64("total_ms", st.now().Sub(st.t0).Milliseconds()).
		Str("milestones", strings.Join(parts, ",")).
		Msg("startup_trace: first tree loaded")
}

// Milestones returns a copy of the recorded milestones.
func (st *StartupTrace) Milestones() []Milestone {
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]Milestone(nil), st.milestones...)
}
