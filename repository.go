package omekas

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strconv"

	"github.com/st-keller/omekas-client/api"
	"github.com/st-keller/omekas-client/config"
	"github.com/st-keller/omekas-client/metric"
	"github.com/st-keller/omekas-client/request"
	"github.com/st-keller/omekas-client/transport"
	"github.com/st-keller/omekas-client/types"
)

// DefaultPerPage is used when a listing is called with perPage <= 0.
const DefaultPerPage = 25

// Repository is the entry point to one repository API. It owns exactly one
// api.Client and is immutable after New.
type Repository struct {
	endpoint string
	client   *api.Client
	logger   *slog.Logger
}

type options struct {
	logger    *slog.Logger
	transport transport.Transport
	metrics   *metric.Metrics
}

// Option configures a Repository.
type Option func(*options)

// WithLogger sets the logger for the repository and its client.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTransport replaces the transport built from the config.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithMetrics enables Prometheus metrics on the client.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a Repository from cfg.
func New(cfg config.Config, opts ...Option) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if o.transport == nil {
		t, err := transport.NewHTTP(transport.Options{
			Timeout:   cfg.Client.Timeout,
			UserAgent: cfg.Client.UserAgent,
			HTTP2:     cfg.Client.HTTP2,
			CertPath:  cfg.Client.TLS.CertPath,
			KeyPath:   cfg.Client.TLS.KeyPath,
			CAPath:    cfg.Client.TLS.CAPath,
		})
		if err != nil {
			return nil, err
		}
		o.transport = t
	}

	client, err := api.New(cfg.Repository.APIEndpoint,
		api.Credentials{
			Identity:   cfg.Repository.APIKeyIdentity,
			Credential: cfg.Repository.APIKeyCredential,
		},
		api.WithTransport(o.transport),
		api.WithLogger(o.logger),
		api.WithMetrics(o.metrics),
		api.WithAuthenticateAll(cfg.Client.AuthenticateAllRequests),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	o.logger.Debug("Repository initialized", slog.String("endpoint", client.Endpoint()))

	return &Repository{
		endpoint: client.Endpoint(),
		client:   client,
		logger:   o.logger,
	}, nil
}

// Endpoint returns the API endpoint.
func (r *Repository) Endpoint() string {
	return r.endpoint
}

// Client returns the underlying API client.
func (r *Repository) Client() *api.Client {
	return r.client
}

// GetItems fetches one page of items with a single request. The returned
// sequence decodes lazily and can be ranged more than once; each pass yields
// fresh Item instances. There is no automatic pagination.
func (r *Repository) GetItems(ctx context.Context, perPage int, useCache bool) (iter.Seq2[*Item, error], error) {
	var payloads []json.RawMessage
	if err := r.list(ctx, "list items", "items", request.Params{"per_page": perPageParam(perPage)}, useCache, &payloads); err != nil {
		return nil, err
	}

	return func(yield func(*Item, error) bool) {
		for _, raw := range payloads {
			var payload types.Resource
			if err := json.Unmarshal(raw, &payload); err != nil {
				if !yield(nil, fmt.Errorf("failed to decode item: %w", err)) {
					return
				}
				continue
			}
			item, err := newItem(r, payload)
			if !yield(item, err) {
				return
			}
		}
	}, nil
}

// GetItem fetches a single item. Any non-200 response yields ErrItemNotFound
// wrapped in a *StatusError.
func (r *Repository) GetItem(ctx context.Context, id int, useCache bool) (*Item, error) {
	resp, err := r.client.Get(ctx, itemPath(id), nil, useCache)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Op: fmt.Sprintf("get item %d", id), StatusCode: resp.StatusCode, Err: ErrItemNotFound}
	}

	var payload types.Resource
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}
	return newItem(r, payload)
}

// GetVocabularies returns one page of vocabularies.
func (r *Repository) GetVocabularies(ctx context.Context, perPage int) ([]*Vocabulary, error) {
	var records []types.VocabularyRecord
	if err := r.list(ctx, "list vocabularies", "vocabularies", request.Params{"per_page": perPageParam(perPage)}, true, &records); err != nil {
		return nil, err
	}
	return r.wrapVocabularies(records), nil
}

// VocabularySelector picks vocabularies by prefix or by namespace URI.
// Exactly one field must be set.
type VocabularySelector struct {
	Prefix string
	URI    string
}

// VocabularyMatch is the result of GetVocabulary: a single vocabulary when
// exactly one matched, otherwise the ordered matches (possibly none).
type VocabularyMatch struct {
	matches []*Vocabulary
}

// Single returns the vocabulary if exactly one matched.
func (m VocabularyMatch) Single() (*Vocabulary, bool) {
	if len(m.matches) != 1 {
		return nil, false
	}
	return m.matches[0], true
}

// All returns the matches in server order.
func (m VocabularyMatch) All() []*Vocabulary {
	return m.matches
}

// Len returns the number of matches.
func (m VocabularyMatch) Len() int {
	return len(m.matches)
}

// GetVocabulary looks vocabularies up by prefix or namespace URI.
func (r *Repository) GetVocabulary(ctx context.Context, sel VocabularySelector) (VocabularyMatch, error) {
	params := request.Params{}
	switch {
	case sel.Prefix != "" && sel.URI == "":
		params["prefix"] = sel.Prefix
	case sel.URI != "" && sel.Prefix == "":
		params["namespace_uri"] = sel.URI
	default:
		return VocabularyMatch{}, ErrInvalidSelector
	}

	var records []types.VocabularyRecord
	if err := r.list(ctx, "get vocabulary", "vocabularies", params, true, &records); err != nil {
		return VocabularyMatch{}, err
	}
	return VocabularyMatch{matches: r.wrapVocabularies(records)}, nil
}

// GetVocabularyByID fetches a vocabulary by its numeric id.
func (r *Repository) GetVocabularyByID(ctx context.Context, id int) (*Vocabulary, error) {
	var record types.VocabularyRecord
	if err := r.fetch(ctx, fmt.Sprintf("get vocabulary %d", id), "vocabularies/"+strconv.Itoa(id), &record); err != nil {
		return nil, err
	}
	return newVocabulary(r, record), nil
}

// GetProperty resolves a fully qualified term ("prefix:local_name").
// It fails with *NotFoundError on zero matches and *AmbiguousResultError on
// more than one.
func (r *Repository) GetProperty(ctx context.Context, term string) (*Property, error) {
	properties, err := r.GetProperties(ctx, PropertyQuery{Term: term})
	if err != nil {
		return nil, err
	}
	switch len(properties) {
	case 0:
		return nil, &NotFoundError{Kind: "property", Key: term}
	case 1:
		return properties[0], nil
	default:
		return nil, &AmbiguousResultError{Kind: "property", Key: term, Count: len(properties)}
	}
}

// GetPropertyByID fetches a property by its numeric id.
func (r *Repository) GetPropertyByID(ctx context.Context, id int) (*Property, error) {
	var record types.PropertyRecord
	if err := r.fetch(ctx, fmt.Sprintf("get property %d", id), "properties/"+strconv.Itoa(id), &record); err != nil {
		return nil, err
	}
	return newProperty(r, record), nil
}

// PropertyQuery filters the property listing. Zero fields are not sent.
type PropertyQuery struct {
	Term         string
	VocabularyID int
	LocalName    string
	PerPage      int
}

func (q PropertyQuery) params() request.Params {
	params := request.Params{}
	if q.Term != "" {
		params["term"] = q.Term
	}
	if q.VocabularyID != 0 {
		params["vocabulary_id"] = strconv.Itoa(q.VocabularyID)
	}
	if q.LocalName != "" {
		params["local_name"] = q.LocalName
	}
	if q.PerPage > 0 {
		params["per_page"] = strconv.Itoa(q.PerPage)
	}
	return params
}

// GetProperties lists properties matching q.
func (r *Repository) GetProperties(ctx context.Context, q PropertyQuery) ([]*Property, error) {
	var records []types.PropertyRecord
	if err := r.list(ctx, "list properties", "properties", q.params(), true, &records); err != nil {
		return nil, err
	}

	properties := make([]*Property, 0, len(records))
	for _, record := range records {
		properties = append(properties, newProperty(r, record))
	}
	return properties, nil
}

// list issues one GET and decodes an HTTP 200 body into out.
func (r *Repository) list(ctx context.Context, op, path string, params request.Params, useCache bool, out any) error {
	resp, err := r.client.Get(ctx, path, params, useCache)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}
	return resp.JSON(out)
}

// fetch issues one cached GET for a single resource; non-200 maps to ErrNotFound.
func (r *Repository) fetch(ctx context.Context, op, path string, out any) error {
	resp, err := r.client.Get(ctx, path, nil, true)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}
	return resp.JSON(out)
}

func (r *Repository) wrapVocabularies(records []types.VocabularyRecord) []*Vocabulary {
	vocabularies := make([]*Vocabulary, 0, len(records))
	for _, record := range records {
		vocabularies = append(vocabularies, newVocabulary(r, record))
	}
	return vocabularies
}

func perPageParam(perPage int) string {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return strconv.Itoa(perPage)
}

func itemPath(id int) string {
	return "items/" + strconv.Itoa(id)
}
