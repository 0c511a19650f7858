package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/Sternrassler/api-resources-client/pkg/pagination"
	"github.com/go-playground/validator/v10"
)

// DefaultTTL is how long list, count and get responses are cached.
const DefaultTTL = 60 * time.Second

// ErrNotFound is returned when a response carries no record.
var ErrNotFound = errors.New("record not found")

// API is the part of the client a repository uses.
type API interface {
	FetchResult(ctx context.Context, endpoint string, opts client.FetchOptions) (client.Body, error)
	PostResult(ctx context.Context, endpoint string, data any, opts ...client.WriteOption) (client.Body, error)
	PatchResult(ctx context.Context, endpoint string, data any, opts ...client.WriteOption) (client.Body, error)
	DeleteResult(ctx context.Context, endpoint string, opts ...client.WriteOption) (client.Body, error)
	ReportFailure(ctx context.Context, method, target string, data any, headers map[string]string, err error)
	Pagination() client.PaginationParams
}

// Page is one page of records.
type Page[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}

// LastPage returns the number of the last page.
func (p Page[T]) LastPage() int {
	return pagination.TotalPages(p.Total, p.PerPage)
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	envelope   Envelope
	ttl        time.Duration
	validate   *validator.Validate
	pagination pagination.Config
}

// WithEnvelope sets the response envelope paths.
func WithEnvelope(e Envelope) Option {
	return func(o *options) { o.envelope = e.withDefaults() }
}

// WithTTL sets the cache TTL of reads; 0 disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithValidator replaces the validator used on hydration.
func WithValidator(v *validator.Validate) Option {
	return func(o *options) { o.validate = v }
}

// WithPagination configures the batch fetcher used by All.
func WithPagination(cfg pagination.Config) Option {
	return func(o *options) { o.pagination = cfg }
}

// Repository reads and writes records of type T at one collection endpoint.
// Failures are reported through the client and returned.
type Repository[T any] struct {
	api      API
	endpoint string
	opts     options
}

// NewRepository creates a repository for endpoint, e.g. "/users".
func NewRepository[T any](api API, endpoint string, opts ...Option) *Repository[T] {
	o := options{
		envelope:   DefaultEnvelope(),
		ttl:        DefaultTTL,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		pagination: pagination.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{
		api:      api,
		endpoint: strings.TrimRight(endpoint, "/"),
		opts:     o,
	}
}

// Endpoint returns the collection endpoint.
func (r *Repository[T]) Endpoint() string {
	return r.endpoint
}

// List fetches one page. perPage <= 0 uses client.DefaultPerPage. The total
// falls back to the number of items when the response omits it.
func (r *Repository[T]) List(ctx context.Context, page, perPage int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = client.DefaultPerPage
	}

	body, err := r.fetch(ctx, client.FetchOptions{Page: page, PerPage: perPage})
	if err != nil {
		return Page[T]{}, err
	}

	items, err := r.hydrateAll(r.opts.envelope.Results(body))
	if err != nil {
		return Page[T]{}, err
	}

	total, ok := r.opts.envelope.Total(body)
	if !ok {
		total = len(items)
	}

	return Page[T]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Count returns the collection size, 0 when the API does not report it.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	body, err := r.fetch(ctx, client.FetchOptions{})
	if err != nil {
		return 0, err
	}
	total, _ := r.opts.envelope.Total(body)
	return total, nil
}

// Get fetches the record with id. forceRefresh bypasses the cache.
func (r *Repository[T]) Get(ctx context.Context, id string, forceRefresh bool) (*T, error) {
	body, err := r.fetch(ctx, client.FetchOptions{
		Params:       client.Params{"id": id},
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, err
	}
	return r.record(body)
}

// Create posts attrs to the collection and returns the created record.
func (r *Repository[T]) Create(ctx context.Context, attrs any) (*T, error) {
	body, err := r.api.PostResult(ctx, r.endpoint, attrs)
	if err != nil {
		r.api.ReportFailure(ctx, http.MethodPost, r.endpoint, attrs, nil, err)
		return nil, err
	}
	return r.record(body)
}

// Update patches the record with id and returns the updated record.
func (r *Repository[T]) Update(ctx context.Context, id string, attrs any) (*T, error) {
	endpoint := r.recordEndpoint(id)
	body, err := r.api.PatchResult(ctx, endpoint, attrs)
	if err != nil {
		r.api.ReportFailure(ctx, http.MethodPatch, endpoint, attrs, nil, err)
		return nil, err
	}
	return r.record(body)
}

// Delete deletes the record with id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	endpoint := r.recordEndpoint(id)
	if _, err := r.api.DeleteResult(ctx, endpoint); err != nil {
		r.api.ReportFailure(ctx, http.MethodDelete, endpoint, nil, nil, err)
		return err
	}
	return nil
}

// All fetches every page in parallel and returns the records in page order.
// On a failed page the records fetched so far are returned with the error.
func (r *Repository[T]) All(ctx context.Context, perPage int) ([]T, error) {
	if perPage <= 0 {
		perPage = client.DefaultPerPage
	}

	fetcher := pagination.NewBatchFetcher(pageFetcher[T]{repo: r, perPage: perPage}, r.opts.pagination)
	pages, fetchErr := fetcher.FetchAll(ctx, r.endpoint)

	var items []T
	for _, raw := range pages.Complete() {
		batch, err := r.hydrateAll(r.opts.envelope.Results(client.Body(raw)))
		if err != nil {
			return items, err
		}
		items = append(items, batch...)
	}

	return items, fetchErr
}

func (r *Repository[T]) recordEndpoint(id string) string {
	return r.endpoint + "/" + id
}

func (r *Repository[T]) fetch(ctx context.Context, opts client.FetchOptions) (client.Body, error) {
	opts.CacheTTL = r.opts.ttl
	body, err := r.api.FetchResult(ctx, r.endpoint, opts)
	if err != nil {
		target := client.Compile(r.endpoint, opts.Params, opts.Page, opts.PerPage, r.api.Pagination())
		r.api.ReportFailure(ctx, http.MethodGet, target, nil, nil, err)
		return nil, err
	}
	return body, nil
}

func (r *Repository[T]) record(body client.Body) (*T, error) {
	raw, ok := r.opts.envelope.Record(body)
	if !ok {
		return nil, ErrNotFound
	}
	return r.hydrate(raw)
}

func (r *Repository[T]) hydrateAll(raws []client.Body) ([]T, error) {
	items := make([]T, 0, len(raws))
	for i, raw := range raws {
		item, err := r.hydrate(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// hydrate decodes raw into T and validates struct tags.
func (r *Repository[T]) hydrate(raw client.Body) (*T, error) {
	var item T
	if err := raw.Decode(&item); err != nil {
		return nil, err
	}

	if err := r.opts.validate.Struct(&item); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return nil, &client.InvalidDataError{Reason: "record failed validation", Raw: raw, Err: err}
		}
		// T is not a struct; nothing to validate
	}

	return &item, nil
}

// pageFetcher adapts a repository to the batch fetcher.
type pageFetcher[T any] struct {
	repo    *Repository[T]
	perPage int
}

func (f pageFetcher[T]) FetchPage(ctx context.Context, _ string, pageNum int) ([]byte, int, error) {
	body, err := f.repo.fetch(ctx, client.FetchOptions{Page: pageNum, PerPage: f.perPage})
	if err != nil {
		return nil, 0, err
	}

	total, ok := f.repo.opts.envelope.Total(body)
	if !ok {
		return body, 1, nil
	}
	return body, pagination.TotalPages(total, f.perPage), nil
}
