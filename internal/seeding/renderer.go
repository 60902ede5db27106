package seeding

import (
	"fmt"
	"sync"
	"time"

	"trendseed/cli/internal/importer"
	"trendseed/cli/internal/logging"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// spinnerFrames are braille frames similar to the docker CLI.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 120 * time.Millisecond

// Renderer renders seeding events to the console.
//
// In interactive mode the import phase is a single spinner line updated in
// place; row failures are collected and printed once the area is gone. Otherwise
// every failure is printed as it happens.
type Renderer struct {
	interactive bool
	progress    *ProgressState
	rs          *RenderState

	mu       sync.Mutex
	area     *pterm.AreaPrinter
	stop     chan struct{}
	wg       sync.WaitGroup
	deferred []string
}

// NewRenderer creates a renderer reading counts from progress.
func NewRenderer(progress *ProgressState, interactive bool) *Renderer {
	return &Renderer{interactive: interactive, progress: progress, rs: NewRenderState()}
}

// Render processes a single event.
func (r *Renderer) Render(ev Event) {
	switch ev.Type {
	case EventState:
		r.renderState(ev)
	case EventAuthRetry:
		pterm.Warning.Printfln("Authentication attempt %d/%d failed: %s. Retrying...",
			ev.Attempt, ev.Attempts, logging.Mask(ev.Message))
	case EventSchemaStep:
		pterm.Debug.Printfln("schema step %s on %s", ev.Step, ev.Collection)
	case EventRow:
		if ev.Outcome != importer.Failed {
			return
		}
		line := failureLine(ev)
		if r.spinning() {
			r.mu.Lock()
			r.deferred = append(r.deferred, line)
			r.mu.Unlock()
			return
		}
		pterm.Error.Println(line)
	case EventFinished:
		r.stopSpinner()
		r.flushDeferred()
		if ev.Summary != nil {
			r.renderSummary(*ev.Summary)
		}
	}
}

// failureLine is the console line of a failed row.
func failureLine(ev Event) string {
	return fmt.Sprintf("Failed to import %s: %s", displaySub(ev), logging.Mask(ev.Message))
}

func displaySub(ev Event) string {
	if ev.SubCategory != "" {
		return ev.SubCategory
	}
	return fmt.Sprintf("line %d", ev.Line)
}

func (r *Renderer) renderState(ev Event) {
	switch ev.State {
	case StateAuthenticating:
		pterm.Info.Println("Authenticating as superuser...")
	case StateSchemaCheck:
		pterm.Success.Println("Authenticated.")
		pterm.Info.Printfln("Checking collection %s...", ev.Collection)
	case StateSchemaDelete:
		pterm.Warning.Printfln("Collection %s exists. Deleting it together with its records...", ev.Collection)
	case StateSchemaCreate:
		pterm.Info.Printfln("Creating collection %s...", ev.Collection)
	case StateImporting:
		pterm.Success.Printfln("Collection %s created.", ev.Collection)
		r.startSpinner()
	case StateDone, StateAborted:
		r.stopSpinner()
	}
}

func (r *Renderer) spinning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.area != nil
}

func (r *Renderer) startSpinner() {
	if !r.interactive {
		pterm.Info.Println("Importing rows...")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.area != nil {
		return
	}

	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		pterm.Info.Println("Importing rows...")
		return
	}
	r.area = area
	r.rs.Reset()
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go func(stop chan struct{}) {
		defer r.wg.Done()
		t := time.NewTicker(spinnerInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				idx := r.rs.IncrementFrame()
				line := r.rs.FormatLine(fmt.Sprintf("%s %s", spinnerFrames[idx%len(spinnerFrames)], r.progress.Line()))
				if r.rs.SwapLastRendered(line) {
					area.Update(line)
				}
			case <-stop:
				return
			}
		}
	}(r.stop)
}

func (r *Renderer) stopSpinner() {
	r.mu.Lock()
	if r.area == nil {
		r.mu.Unlock()
		return
	}
	close(r.stop)
	area := r.area
	r.mu.Unlock()

	r.wg.Wait()
	_ = area.Stop()
	cursor.Show()

	r.mu.Lock()
	r.area = nil
	r.mu.Unlock()
}

func (r *Renderer) flushDeferred() {
	r.mu.Lock()
	lines := r.deferred
	r.deferred = nil
	r.mu.Unlock()
	for _, l := range lines {
		pterm.Error.Println(l)
	}
}

func (r *Renderer) renderSummary(s Summary) {
	elapsed := s.Duration.Round(time.Millisecond)
	if s.State == StateAborted {
		title := pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Provisioning Failed")
		details := fmt.Sprintf("Duration: %s\nStopped during: %s\nCollection: %s", elapsed, s.FailedAt, s.Collection)
		if s.FailedAt == StateImporting {
			details += fmt.Sprintf("\nImported before stop: %d", s.Imported)
		}
		pterm.Println(pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(details))
		return
	}

	if s.Warning != "" {
		pterm.Warning.Printfln("Import stopped early: %s", logging.Mask(s.Warning))
	}
	title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Import Completed")
	if s.Failed > 0 {
		title = pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprint("Import Completed With Errors")
	}
	details := fmt.Sprintf("Duration: %s\nCollection: %s\nImported: %d\nFailed: %d", elapsed, s.Collection, s.Imported, s.Failed)
	if s.Skipped > 0 {
		details += fmt.Sprintf("\nEmpty rows skipped: %d", s.Skipped)
	}
	pterm.Println(pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(details))
	pterm.Success.Printfln("Successfully imported %d records.", s.Imported)
}
