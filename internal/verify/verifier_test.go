package verify

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/backend/backendtest"
	"trendseed/cli/internal/schema"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*backendtest.Fake, *bytes.Buffer, *Verifier) {
	t.Helper()
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)

	fake := backendtest.New("admin@example.com", "pw")
	fake.PutCollection(schema.SearchTrends(schema.Options{}),
		map[string]any{"main_category": "Tech", "sub_category": "AI", "queries": []any{"gpt"}},
		map[string]any{"main_category": "Food", "sub_category": "Vegan", "queries": []any{}},
	)
	out := &bytes.Buffer{}
	return fake, out, &Verifier{API: fake, Out: out, Collection: "search_trends"}
}

func TestVerifierPrintsBoth(t *testing.T) {
	fake, out, v := setup(t)

	rep := v.Run(context.Background(), fake.Token())
	require.True(t, rep.OK())
	assert.Equal(t, 2, rep.TotalItems)
	assert.Equal(t, []string{"get-collection search_trends", "list-records search_trends"}, fake.Calls())

	text := out.String()
	assert.True(t, strings.HasPrefix(text, SchemaHeader+"\n{\n  "), "schema is indented JSON")
	assert.Less(t, strings.Index(text, SchemaHeader), strings.Index(text, RecordHeader))
	assert.Contains(t, text, `"main_category": "Tech"`)
	assert.NotContains(t, text, `"Vegan"`, "only the first page of one record is printed")
	assert.True(t, strings.HasSuffix(text, "Total items: 2\n"))
}

func TestVerifierSchemaFailureStillListsRecords(t *testing.T) {
	fake, out, v := setup(t)
	fake.GetCollectionErr = &backend.HTTPError{StatusCode: http.StatusInternalServerError, Body: "boom"}

	rep := v.Run(context.Background(), fake.Token())
	assert.False(t, rep.OK())
	require.Error(t, rep.SchemaErr)
	require.NoError(t, rep.RecordsErr)
	assert.Equal(t, []string{"get-collection search_trends", "list-records search_trends"}, fake.Calls())

	text := out.String()
	assert.Contains(t, text, RecordHeader)
	assert.Contains(t, text, `"sub_category": "AI"`)
}

func TestVerifierRecordFailureKeepsSchema(t *testing.T) {
	fake, out, v := setup(t)
	fake.ListRecordsErr = &backend.HTTPError{StatusCode: http.StatusForbidden}

	rep := v.Run(context.Background(), fake.Token())
	require.NoError(t, rep.SchemaErr)
	require.Error(t, rep.RecordsErr)
	assert.Equal(t, -1, rep.TotalItems)
	assert.Contains(t, out.String(), `"name": "search_trends"`)
	assert.NotContains(t, out.String(), "Total items")
}

func TestVerifierPerPage(t *testing.T) {
	fake, out, v := setup(t)
	v.PerPage = 10

	rep := v.Run(context.Background(), fake.Token())
	require.True(t, rep.OK())
	assert.Contains(t, out.String(), `"Vegan"`)
}
