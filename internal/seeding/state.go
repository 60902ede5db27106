package seeding

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"trendseed/cli/internal/importer"
)

// State is a workflow state.
type State string

const (
	StateStart          State = "START"
	StateAuthenticating State = "AUTHENTICATING"
	StateSchemaCheck    State = "SCHEMA_CHECK"
	StateSchemaDelete   State = "SCHEMA_DELETE"
	StateSchemaCreate   State = "SCHEMA_CREATE"
	StateImporting      State = "IMPORTING"
	StateDone           State = "DONE"
	StateAborted        State = "ABORTED"
)

// transitions lists the legal successors of every state.
var transitions = map[State][]State{
	StateStart:          {StateAuthenticating, StateAborted},
	StateAuthenticating: {StateSchemaCheck, StateAborted},
	StateSchemaCheck:    {StateSchemaDelete, StateSchemaCreate, StateAborted},
	StateSchemaDelete:   {StateSchemaCreate, StateAborted},
	StateSchemaCreate:   {StateImporting, StateAborted},
	StateImporting:      {StateDone, StateAborted},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateAborted }

// CanTransition reports whether to is a legal successor of s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine tracks the current state and the path taken so far.
type Machine struct {
	mu   sync.Mutex
	cur  State
	path []State
}

// NewMachine returns a machine in StateStart.
func NewMachine() *Machine {
	return &Machine{cur: StateStart, path: []State{StateStart}}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// Path returns every state visited, in order.
func (m *Machine) Path() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.path...)
}

// To moves to the next state or returns an error for an illegal transition.
func (m *Machine) To(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cur.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", m.cur, next)
	}
	m.cur = next
	m.path = append(m.path, next)
	return nil
}

// ProgressState tracks the import progress of the current run.
type ProgressState struct {
	// Imported counts rows stored as records
	Imported int
	// Failed counts rows that could not be stored
	Failed int
	// Skipped counts empty rows
	Skipped int
	// LastSubCategory is the subcategory of the last row handled
	LastSubCategory string
	// Failures lists failed rows in arrival order
	Failures []RowFailure
	// mu protects concurrent access to all fields
	mu sync.Mutex
}

// RowFailure is one failed row as recorded in the progress state and the run report.
type RowFailure struct {
	Line        int    `json:"line"`
	SubCategory string `json:"sub_category,omitempty"`
	Reason      string `json:"reason"`
}

// NewProgressState creates an empty ProgressState.
func NewProgressState() *ProgressState {
	return &ProgressState{}
}

// Reset clears all progress, preparing for a new run.
func (ps *ProgressState) Reset() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.Imported, ps.Failed, ps.Skipped = 0, 0, 0
	ps.LastSubCategory = ""
	ps.Failures = nil
}

// Apply folds a row event into the progress.
func (ps *ProgressState) Apply(ev Event) {
	if ev.Type != EventRow {
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	switch ev.Outcome {
	case importer.Imported:
		ps.Imported++
	case importer.Failed:
		ps.Failed++
		ps.Failures = append(ps.Failures, RowFailure{Line: ev.Line, SubCategory: ev.SubCategory, Reason: ev.Message})
	case importer.Skipped:
		ps.Skipped++
		return
	}
	if ev.SubCategory != "" {
		ps.LastSubCategory = ev.SubCategory
	}
}

// Counts returns imported, failed and skipped counts.
func (ps *ProgressState) Counts() (imported, failed, skipped int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.Imported, ps.Failed, ps.Skipped
}

// HasFailures returns true if any row has failed.
func (ps *ProgressState) HasFailures() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.Failed > 0
}

// Line renders the one-line progress summary shown next to the spinner.
func (ps *ProgressState) Line() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	line := fmt.Sprintf("Importing rows: %d imported, %d failed", ps.Imported, ps.Failed)
	if ps.LastSubCategory != "" {
		line += " · " + ps.LastSubCategory
	}
	return line
}

// RenderState holds the UI rendering state for the import spinner line.
// It tracks animation frames, display width and the last rendered content.
type RenderState struct {
	// FrameIdx is the current animation frame index for spinners
	FrameIdx int
	// MaxLineLen tracks the maximum line length to prevent flickering
	MaxLineLen int
	// LastRendered caches the last rendered content to avoid unnecessary updates
	LastRendered string
	// mu protects concurrent access to rendering state
	mu sync.Mutex
}

// NewRenderState creates a new RenderState with default values.
func NewRenderState() *RenderState {
	return &RenderState{}
}

// IncrementFrame advances the animation frame index and returns the new value.
func (rs *RenderState) IncrementFrame() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.FrameIdx++
	return rs.FrameIdx
}

// SwapLastRendered stores content and reports whether it differs from the previous value.
func (rs *RenderState) SwapLastRendered(content string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.LastRendered == content {
		return false
	}
	rs.LastRendered = content
	return true
}

// Reset clears the rendering state for a new session.
func (rs *RenderState) Reset() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.FrameIdx = 0
	rs.MaxLineLen = 0
	rs.LastRendered = ""
}

// FormatLine pads line to the widest line seen so far so shorter updates
// fully overwrite longer ones.
func (rs *RenderState) FormatLine(line string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	lineLen := utf8.RuneCountInString(line)
	if lineLen > rs.MaxLineLen {
		rs.MaxLineLen = lineLen
	}
	if pad := rs.MaxLineLen - lineLen; pad > 0 {
		return line + strings.Repeat(" ", pad)
	}
	return line
}
