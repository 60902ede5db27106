package schema

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/backend/backendtest"
	apperr "trendseed/cli/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFake(t *testing.T) (*backendtest.Fake, string) {
	t.Helper()
	fake := backendtest.New("admin@example.com", "pw")
	res, err := fake.AuthWithPassword(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	fake.ResetCalls()
	return fake, res.Token
}

func TestSearchTrendsDefinition(t *testing.T) {
	c := SearchTrends(Options{})

	assert.Equal(t, "search_trends", c.Name)
	assert.Equal(t, "base", c.Type)
	assert.Equal(t, []backend.Field{
		{Name: "main_category", Type: "text", Required: true},
		{Name: "sub_category", Type: "text", Required: true},
		{Name: "queries", Type: "json", Required: false},
	}, c.Fields)
	assert.Nil(t, c.ListRule)
	assert.Nil(t, c.DeleteRule)

	open := SearchTrends(Options{Name: "trends_staging", OpenRules: true})
	assert.Equal(t, "trends_staging", open.Name)
	for _, rule := range []*string{open.ListRule, open.ViewRule, open.CreateRule, open.UpdateRule, open.DeleteRule} {
		require.NotNil(t, rule)
		assert.Equal(t, "", *rule)
	}
}

func TestEnsureAbsentCreates(t *testing.T) {
	fake, token := newFake(t)
	var steps []Step
	p := NewProvisioner(fake, func(s Step, _ string) { steps = append(steps, s) })

	out, err := p.Ensure(context.Background(), token, SearchTrends(Options{}))
	require.NoError(t, err)
	assert.False(t, out.Replaced)
	assert.NotEmpty(t, out.Created)
	assert.Equal(t, []Step{StepCheck, StepCreate}, steps)
	assert.Equal(t, []string{"exists search_trends", "create-collection search_trends"}, fake.Calls())

	got, ok := fake.Collection("search_trends")
	require.True(t, ok)
	assert.Equal(t, SearchTrends(Options{}).Fields, got.Fields)
}

func TestEnsurePresentDeletesThenCreates(t *testing.T) {
	fake, token := newFake(t)
	fake.PutCollection(backend.Collection{
		Name:   "search_trends",
		Type:   "base",
		Fields: []backend.Field{{Name: "legacy", Type: "text"}},
	}, map[string]any{"legacy": "row"})

	var steps []Step
	p := NewProvisioner(fake, func(s Step, _ string) { steps = append(steps, s) })

	out, err := p.Ensure(context.Background(), token, SearchTrends(Options{}))
	require.NoError(t, err)
	assert.True(t, out.Replaced)
	assert.Equal(t, []Step{StepCheck, StepDelete, StepCreate}, steps)
	assert.Equal(t, []string{"exists search_trends", "delete search_trends", "create-collection search_trends"}, fake.Calls())

	got, _ := fake.Collection("search_trends")
	assert.Equal(t, SearchTrends(Options{}).Fields, got.Fields, "legacy layout is replaced, never merged")
	assert.Empty(t, fake.Records("search_trends"), "records are dropped with the collection")
}

func TestEnsureFailures(t *testing.T) {
	boom := &backend.HTTPError{StatusCode: http.StatusInternalServerError, Body: "boom"}

	tests := []struct {
		name      string
		present   bool
		setup     func(*backendtest.Fake)
		wantCalls []string
	}{
		{
			name:      "probe error aborts before delete and create",
			setup:     func(f *backendtest.Fake) { f.ExistsErr = boom },
			wantCalls: []string{"exists search_trends"},
		},
		{
			name:      "probe transport error aborts",
			setup:     func(f *backendtest.Fake) { f.ExistsErr = apperr.Wrap(apperr.Transport, "GET", errors.New("refused")) },
			wantCalls: []string{"exists search_trends"},
		},
		{
			name:      "delete error aborts before create",
			present:   true,
			setup:     func(f *backendtest.Fake) { f.DeleteErr = boom },
			wantCalls: []string{"exists search_trends", "delete search_trends"},
		},
		{
			name:      "create error is fatal",
			setup:     func(f *backendtest.Fake) { f.CreateCollectionErr = boom },
			wantCalls: []string{"exists search_trends", "create-collection search_trends"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, token := newFake(t)
			if tt.present {
				fake.PutCollection(SearchTrends(Options{}))
			}
			tt.setup(fake)

			_, err := NewProvisioner(fake, nil).Ensure(context.Background(), token, SearchTrends(Options{}))
			require.Error(t, err)
			assert.Equal(t, apperr.Schema, apperr.KindOf(err))
			assert.Equal(t, tt.wantCalls, fake.Calls())
		})
	}
}

func TestProbe(t *testing.T) {
	fake, token := newFake(t)
	p := NewProvisioner(fake, nil)

	presence, err := p.Probe(context.Background(), token, "search_trends")
	require.NoError(t, err)
	assert.Equal(t, Absent, presence)
	assert.Equal(t, "absent", presence.String())

	fake.PutCollection(SearchTrends(Options{}))
	presence, err = p.Probe(context.Background(), token, "search_trends")
	require.NoError(t, err)
	assert.Equal(t, Present, presence)
}

func TestEnsureTwiceIsIdempotent(t *testing.T) {
	fake, token := newFake(t)
	p := NewProvisioner(fake, nil)
	def := SearchTrends(Options{})

	_, err := p.Ensure(context.Background(), token, def)
	require.NoError(t, err)
	first, _ := fake.Collection(def.Name)

	_, err = p.Ensure(context.Background(), token, def)
	require.NoError(t, err)
	second, _ := fake.Collection(def.Name)

	assert.Equal(t, first, second)
}
