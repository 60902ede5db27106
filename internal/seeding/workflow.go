package seeding

import (
	"context"
	"errors"
	"slices"
	"time"

	"trendseed/cli/internal/auth"
	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/importer"
	"trendseed/cli/internal/schema"
	"trendseed/cli/internal/source"
)

// Summary describes a finished run. It is also the content of the run report.
type Summary struct {
	Collection string        `json:"collection"`
	Source     string        `json:"source,omitempty"`
	Account    string        `json:"account,omitempty"`
	State      State         `json:"state"`
	FailedAt   State         `json:"failed_at,omitempty"`
	Path       []State       `json:"path"`
	Replaced   bool          `json:"replaced"`
	Imported   int           `json:"imported"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Failures   []RowFailure  `json:"failures,omitempty"`
	Warning    string        `json:"warning,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Options configure a Workflow.
type Options struct {
	// Collection is the definition to provision.
	Collection backend.Collection
	// Source is the opened source file, header already consumed. The workflow
	// does not close it.
	Source source.Reader
	// SourceName labels the source in events and the report.
	SourceName string
	// Auth tunes the authentication retry loop.
	Auth []auth.Option
	// Import tunes the importer.
	Import []importer.Option
}

// Workflow provisions the collection and imports the source rows:
//
//	START → AUTHENTICATING → SCHEMA_CHECK → [SCHEMA_DELETE] → SCHEMA_CREATE → IMPORTING → DONE
//
// A failure before IMPORTING moves to ABORTED and is returned. Row failures
// during IMPORTING never abort.
type Workflow struct {
	api     backend.API
	creds   auth.Credentials
	opts    Options
	sink    func(Event)
	machine *Machine
	now     func() time.Time
}

// NewWorkflow creates a workflow. sink receives every event and may be nil.
func NewWorkflow(api backend.API, creds auth.Credentials, opts Options, sink func(Event)) *Workflow {
	if opts.Collection.Name == "" {
		opts.Collection = schema.SearchTrends(schema.Options{})
	}
	return &Workflow{
		api:     api,
		creds:   creds,
		opts:    opts,
		sink:    sink,
		machine: NewMachine(),
		now:     time.Now,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State { return w.machine.Current() }

func (w *Workflow) emit(ev Event) {
	if w.sink == nil {
		return
	}
	ev.At = w.now()
	if ev.Collection == "" {
		ev.Collection = w.opts.Collection.Name
	}
	w.sink(ev)
}

func (w *Workflow) to(next State) {
	if err := w.machine.To(next); err != nil {
		panic(err)
	}
	w.emit(Event{Type: EventState, State: next})
}

// Run executes the workflow once. The returned Summary is complete on every path.
func (w *Workflow) Run(ctx context.Context) (Summary, error) {
	def := w.opts.Collection
	sum := Summary{
		Collection: def.Name,
		Source:     w.opts.SourceName,
		StartedAt:  w.now(),
	}
	finish := func(err error) (Summary, error) {
		sum.State = w.machine.Current()
		sum.Path = w.machine.Path()
		sum.Duration = w.now().Sub(sum.StartedAt)
		if err != nil {
			sum.Error = err.Error()
		}
		w.emit(Event{Type: EventFinished, State: sum.State, Summary: &sum})
		return sum, err
	}
	abort := func(err error) (Summary, error) {
		sum.FailedAt = w.machine.Current()
		w.to(StateAborted)
		return finish(err)
	}

	// Authenticating
	w.to(StateAuthenticating)
	var svc *auth.Service
	svc = auth.NewService(w.api, w.creds, append(slices.Clone(w.opts.Auth), auth.WithOnRetry(func(attempt int, err error) {
		w.emit(Event{Type: EventAuthRetry, Attempt: attempt, Attempts: svc.Attempts(), Message: err.Error()})
	}))...)
	token, err := svc.Authenticate(ctx)
	if err != nil {
		return abort(err)
	}
	sum.Account = svc.Account()

	// Schema: the provisioner drives the step order, the machine follows it.
	w.to(StateSchemaCheck)
	prov := schema.NewProvisioner(w.api, func(step schema.Step, name string) {
		switch step {
		case schema.StepDelete:
			w.to(StateSchemaDelete)
		case schema.StepCreate:
			w.to(StateSchemaCreate)
		}
		w.emit(Event{Type: EventSchemaStep, Step: string(step), Collection: name})
	})
	out, err := prov.Ensure(ctx, token, def)
	sum.Replaced = out.Replaced
	if err != nil {
		return abort(err)
	}

	// Importing
	w.to(StateImporting)
	im := importer.New(w.api, def.Name, append(slices.Clone(w.opts.Import), importer.WithOnRow(func(ev importer.RowEvent) {
		e := Event{Type: EventRow, Line: ev.Line, SubCategory: ev.Record.SubCategory, Outcome: ev.Outcome}
		if ev.Err != nil {
			e.Message = ev.Err.Err.Error()
			e.SubCategory = ev.Err.SubCategory
		}
		w.emit(e)
	}))...)
	res := im.Run(ctx, token, w.opts.Source)

	sum.Imported, sum.Failed, sum.Skipped = res.Imported, res.Failed, res.Skipped
	for _, f := range res.Failures {
		sum.Failures = append(sum.Failures, RowFailure{Line: f.Line, SubCategory: f.SubCategory, Reason: f.Err.Error()})
	}

	if res.Stopped != nil {
		if errors.Is(res.Stopped, context.Canceled) || errors.Is(res.Stopped, context.DeadlineExceeded) {
			return abort(res.Stopped)
		}
		sum.Warning = res.Stopped.Error()
	}
	w.to(StateDone)
	return finish(nil)
}
