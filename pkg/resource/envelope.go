// Package resource maps remote API collections onto typed records.
//
// A Repository wraps one collection endpoint: it lists pages, counts, reads,
// creates, updates and deletes records through the API client, and decodes
// the envelope the API wraps its payloads in.
package resource

import (
	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/tidwall/gjson"
)

// Default envelope paths, matching the paginator format {"data":{"total":N,"data":[...]}}.
const (
	DefaultTotalKey   = "data.total"
	DefaultResultsKey = "data.data"
	DefaultRecordKey  = "data"
)

// Envelope locates payload parts in a response body using dotted paths.
// Numeric path segments index arrays ("data.items.0").
type Envelope struct {
	TotalKey   string
	ResultsKey string
	RecordKey  string
}

// DefaultEnvelope returns the envelope {"data":{"total":N,"data":[...]}}.
func DefaultEnvelope() Envelope {
	return Envelope{
		TotalKey:   DefaultTotalKey,
		ResultsKey: DefaultResultsKey,
		RecordKey:  DefaultRecordKey,
	}
}

func (e Envelope) withDefaults() Envelope {
	if e.TotalKey == "" {
		e.TotalKey = DefaultTotalKey
	}
	if e.ResultsKey == "" {
		e.ResultsKey = DefaultResultsKey
	}
	if e.RecordKey == "" {
		e.RecordKey = DefaultRecordKey
	}
	return e
}

// Total returns the collection size reported by body.
func (e Envelope) Total(body client.Body) (int, bool) {
	v := body.Get(e.withDefaults().TotalKey)
	if !v.Exists() || v.Type != gjson.Number {
		return 0, false
	}
	return int(v.Int()), true
}

// Results returns the raw records of a collection page.
func (e Envelope) Results(body client.Body) []client.Body {
	v := body.Get(e.withDefaults().ResultsKey)
	if !v.IsArray() {
		return nil
	}

	items := v.Array()
	out := make([]client.Body, 0, len(items))
	for _, item := range items {
		out = append(out, client.Body(item.Raw))
	}
	return out
}

// Record returns a single record from body. A record object without nested
// results wins; otherwise the first element of the results is used.
func (e Envelope) Record(body client.Body) (client.Body, bool) {
	e = e.withDefaults()

	record := body.Get(e.RecordKey)
	if record.IsObject() && !body.Get(e.ResultsKey).Exists() {
		return client.Body(record.Raw), true
	}

	results := e.Results(body)
	if len(results) > 0 {
		return results[0], true
	}
	return nil, false
}
