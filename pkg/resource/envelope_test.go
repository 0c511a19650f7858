package resource

import (
	"testing"

	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_TotalAndResults(t *testing.T) {
	body := client.Body(`{"data":{"total":42,"data":[{"id":1},{"id":2}]}}`)
	env := DefaultEnvelope()

	total, ok := env.Total(body)
	require.True(t, ok)
	assert.Equal(t, 42, total)

	results := env.Results(body)
	require.Len(t, results, 2)
	assert.JSONEq(t, `{"id":2}`, string(results[1]))
}

func TestEnvelope_CustomPaths(t *testing.T) {
	body := client.Body(`{"meta":{"count":"7"},"items":[{"id":"a"}],"pagination":{"total":3}}`)
	env := Envelope{TotalKey: "pagination.total", ResultsKey: "items"}

	total, ok := env.Total(body)
	require.True(t, ok)
	assert.Equal(t, 3, total)
	assert.Len(t, env.Results(body), 1)

	_, ok = Envelope{TotalKey: "meta.count"}.Total(body)
	assert.False(t, ok, "string totals are not counts")
}

func TestEnvelope_MissingParts(t *testing.T) {
	env := DefaultEnvelope()

	_, ok := env.Total(client.EmptyBody())
	assert.False(t, ok)
	assert.Empty(t, env.Results(client.EmptyBody()))
	assert.Empty(t, env.Results(client.Body(`{"data":{"data":{"id":1}}}`)), "non-array results")
}

func TestEnvelope_Record(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
		found    bool
	}{
		{"single record", `{"data":{"id":1,"name":"Ada"}}`, `{"id":1,"name":"Ada"}`, true},
		{"paginated first element", `{"data":{"total":2,"data":[{"id":3},{"id":4}]}}`, `{"id":3}`, true},
		{"empty page", `{"data":{"total":0,"data":[]}}`, ``, false},
		{"empty body", `{}`, ``, false},
		{"data is a list", `{"data":[{"id":5}]}`, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := DefaultEnvelope().Record(client.Body(tt.body))
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.JSONEq(t, tt.expected, string(record))
			}
		})
	}
}
