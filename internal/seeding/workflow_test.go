package seeding

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trendseed/cli/internal/auth"
	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/backend/backendtest"
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/importer"
	"trendseed/cli/internal/schema"
	"trendseed/cli/internal/source"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The keyring's kwallet backend connects to the DBus session bus at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/godbus/dbus.(*Conn).inWorker"))
}

var creds = auth.Credentials{Identity: "admin@example.com", Password: "1234567890"}

const trendsCSV = "main_category,sub_category,q1,q2,q3\n" +
	"Tech,AI,gpt,,claude\n" +
	"Tech,Cloud,aws\n" +
	"Food,Vegan\n"

func openCSV(t *testing.T, content string) source.Reader {
	t.Helper()
	p := filepath.Join(t.TempDir(), "trends.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	r, err := source.Open(p, source.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func noSleep(context.Context, time.Duration) error { return nil }

func run(t *testing.T, ctx context.Context, fake *backendtest.Fake, src source.Reader, imp ...importer.Option) (Summary, *Handler, error) {
	t.Helper()
	h := NewHandler().Record()
	w := NewWorkflow(fake, creds, Options{
		Collection: schema.SearchTrends(schema.Options{}),
		Source:     src,
		SourceName: "trends.csv",
		Auth:       []auth.Option{auth.WithSleep(noSleep)},
		Import:     imp,
	}, h.Handle)
	sum, err := w.Run(ctx)
	assert.Equal(t, sum.State, w.State())
	return sum, h, err
}

func TestWorkflowFreshBackend(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)

	sum, h, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.NoError(t, err)

	want := []State{StateStart, StateAuthenticating, StateSchemaCheck, StateSchemaCreate, StateImporting, StateDone}
	assert.Equal(t, want, sum.Path)
	assert.Equal(t, want[1:], h.States())
	assert.Equal(t, StateDone, sum.State)
	assert.False(t, sum.Replaced)
	assert.Equal(t, 3, sum.Imported)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, "admin@example.com", sum.Account)

	assert.Equal(t, []string{
		"auth admin@example.com",
		"exists search_trends",
		"create-collection search_trends",
		"create-record search_trends",
		"create-record search_trends",
		"create-record search_trends",
	}, fake.Calls())

	records := fake.Records("search_trends")
	require.Len(t, records, 3)
	assert.Equal(t, "Tech", records[0]["main_category"])
	assert.Equal(t, []any{"gpt", "claude"}, records[0]["queries"])
	assert.Equal(t, []any{}, records[2]["queries"])

	imported, failed, _ := h.Progress.Counts()
	assert.Equal(t, 3, imported)
	assert.Equal(t, 0, failed)

	last := h.Events()[len(h.Events())-1]
	assert.Equal(t, EventFinished, last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 3, last.Summary.Imported)
}

func TestWorkflowReplacesExistingCollection(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)
	fake.PutCollection(backend.Collection{Name: "search_trends", Type: backend.CollectionBase,
		Fields: []backend.Field{{Name: "old", Type: backend.FieldText}}},
		map[string]any{"old": "a"}, map[string]any{"old": "b"})

	sum, _, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.NoError(t, err)

	assert.True(t, sum.Replaced)
	assert.Equal(t, []State{StateStart, StateAuthenticating, StateSchemaCheck, StateSchemaDelete, StateSchemaCreate, StateImporting, StateDone}, sum.Path)
	assert.Len(t, fake.Records("search_trends"), 3, "old records are gone")
	got, _ := fake.Collection("search_trends")
	assert.Equal(t, schema.SearchTrends(schema.Options{}).Fields, got.Fields)
}

func TestWorkflowAuthExhaustionAbortsBeforeSchema(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)
	fake.AuthFailures = 100

	sum, h, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))

	assert.Equal(t, []State{StateStart, StateAuthenticating, StateAborted}, sum.Path)
	assert.Equal(t, StateAuthenticating, sum.FailedAt)
	assert.NotEmpty(t, sum.Error)

	calls := fake.Calls()
	assert.Len(t, calls, auth.DefaultAttempts)
	for _, c := range calls {
		assert.True(t, strings.HasPrefix(c, "auth "), "no schema call after auth failure: %s", c)
	}

	var retries int
	for _, ev := range h.Events() {
		if ev.Type == EventAuthRetry {
			retries++
			assert.Equal(t, auth.DefaultAttempts, ev.Attempts)
		}
	}
	assert.Equal(t, auth.DefaultAttempts-1, retries)
}

func TestWorkflowSchemaFailureAborts(t *testing.T) {
	tests := []struct {
		name     string
		present  bool
		setup    func(*backendtest.Fake)
		failedAt State
	}{
		{
			name:     "check",
			setup:    func(f *backendtest.Fake) { f.ExistsErr = &backend.HTTPError{StatusCode: http.StatusForbidden} },
			failedAt: StateSchemaCheck,
		},
		{
			name:     "delete",
			present:  true,
			setup:    func(f *backendtest.Fake) { f.DeleteErr = &backend.HTTPError{StatusCode: http.StatusBadRequest} },
			failedAt: StateSchemaDelete,
		},
		{
			name:     "create",
			setup:    func(f *backendtest.Fake) { f.CreateCollectionErr = &backend.HTTPError{StatusCode: http.StatusBadRequest} },
			failedAt: StateSchemaCreate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := backendtest.New(creds.Identity, creds.Password)
			if tt.present {
				fake.PutCollection(schema.SearchTrends(schema.Options{}))
			}
			tt.setup(fake)

			sum, _, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
			require.Error(t, err)
			assert.Equal(t, apperr.Schema, apperr.KindOf(err))
			assert.Equal(t, StateAborted, sum.State)
			assert.Equal(t, tt.failedAt, sum.FailedAt)
			for _, c := range fake.Calls() {
				assert.False(t, strings.HasPrefix(c, "create-record"), "nothing is imported after a schema failure")
			}
		})
	}
}

func TestWorkflowRowFailuresDoNotAbort(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)
	fake.RecordErr = func(n int, _ map[string]any) error {
		if n == 2 {
			return &backend.HTTPError{StatusCode: http.StatusInternalServerError, Body: "boom"}
		}
		return nil
	}

	sum, h, err := run(t, context.Background(), fake, openCSV(t, trendsCSV+"Solo\n"))
	require.NoError(t, err)
	assert.Equal(t, StateDone, sum.State)
	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 2, sum.Failed)
	require.Len(t, sum.Failures, 2)
	assert.Equal(t, "Cloud", sum.Failures[0].SubCategory)
	assert.Equal(t, 3, sum.Failures[0].Line)
	assert.Equal(t, 5, sum.Failures[1].Line)

	assert.True(t, h.Progress.HasFailures())
	assert.Len(t, h.Progress.Failures, 2)
}

func TestWorkflowIsIdempotent(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)

	first, _, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.NoError(t, err)
	firstDef, _ := fake.Collection("search_trends")

	second, _, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.NoError(t, err)
	secondDef, _ := fake.Collection("search_trends")

	assert.Equal(t, firstDef, secondDef)
	assert.Equal(t, first.Imported, second.Imported)
	assert.False(t, first.Replaced)
	assert.True(t, second.Replaced)
	assert.Len(t, fake.Records("search_trends"), first.Imported, "records are replaced, not merged")
}

func TestWorkflowCanceledDuringImport(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.RecordErr = func(n int, _ map[string]any) error {
		if n == 1 {
			cancel()
		}
		return nil
	}

	sum, _, err := run(t, ctx, fake, openCSV(t, trendsCSV))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateAborted, sum.State)
	assert.Equal(t, StateImporting, sum.FailedAt)
	assert.Equal(t, 1, sum.Imported)
}

type brokenReader struct{ n int }

func (b *brokenReader) Header() []string { return nil }
func (b *brokenReader) Close() error     { return nil }
func (b *brokenReader) Next() (source.Row, error) {
	b.n++
	if b.n == 1 {
		return source.Row{Line: 2, Cells: []string{"Tech", "AI"}}, nil
	}
	if b.n == 2 {
		return source.Row{}, errors.New("device not ready")
	}
	return source.Row{}, io.EOF
}

func TestWorkflowReadErrorStillCompletes(t *testing.T) {
	fake := backendtest.New(creds.Identity, creds.Password)

	sum, _, err := run(t, context.Background(), fake, &brokenReader{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, sum.State)
	assert.Equal(t, 1, sum.Imported)
	assert.Contains(t, sum.Warning, "device not ready")
}

func TestReportRoundTrip(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	fake := backendtest.New(creds.Identity, creds.Password)
	sum, _, err := run(t, context.Background(), fake, openCSV(t, trendsCSV))
	require.NoError(t, err)

	path, err := SaveReport(sum)
	require.NoError(t, err)
	assert.Equal(t, ReportFile, filepath.Base(path))

	got, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, sum.Path, got.Path)
	assert.Equal(t, sum.Imported, got.Imported)
	assert.Equal(t, StateDone, got.State)
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := NewMachine()
	assert.Error(t, m.To(StateImporting))
	require.NoError(t, m.To(StateAuthenticating))
	assert.Error(t, m.To(StateSchemaDelete), "delete only follows check")
	require.NoError(t, m.To(StateSchemaCheck))
	require.NoError(t, m.To(StateSchemaCreate))
	require.NoError(t, m.To(StateImporting))
	assert.Error(t, m.To(StateSchemaCheck))
	require.NoError(t, m.To(StateDone))
	assert.True(t, m.Current().Terminal())
	assert.Error(t, m.To(StateAborted))
}

func TestRenderStateFormatLine(t *testing.T) {
	rs := NewRenderState()
	assert.Equal(t, "long line", rs.FormatLine("long line"))
	assert.Equal(t, "short    ", rs.FormatLine("short"))
	assert.True(t, rs.SwapLastRendered("a"))
	assert.False(t, rs.SwapLastRendered("a"))
}

func TestFailureLine(t *testing.T) {
	ev := Event{Type: EventRow, Line: 4, SubCategory: "AI", Outcome: importer.Failed, Message: "status 400: token=abc123"}
	assert.Equal(t, "Failed to import AI: status 400: token=***", failureLine(ev))

	ev.SubCategory = ""
	assert.Equal(t, "Failed to import line 4: status 400: token=***", failureLine(ev))
}

func TestRendererStopsSpinner(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	for _, interactive := range []bool{true, false} {
		fake := backendtest.New(creds.Identity, creds.Password)
		fake.RecordErr = func(n int, _ map[string]any) error {
			if n == 1 {
				return &backend.HTTPError{StatusCode: http.StatusBadRequest}
			}
			return nil
		}

		h := NewHandler()
		r := NewRenderer(h.Progress, interactive)
		h.Subscribe(r.Render)

		w := NewWorkflow(fake, creds, Options{Source: openCSV(t, trendsCSV), Auth: []auth.Option{auth.WithSleep(noSleep)}}, h.Handle)
		_, err := w.Run(context.Background())
		require.NoError(t, err)
		assert.False(t, r.spinning())
		assert.Contains(t, h.Progress.Line(), "2 imported, 1 failed")
	}
}
