package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/listing"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

// Endpoint describes how one collection is exposed by the backend.
type Endpoint struct {
	// Path of the collection, e.g. "/admin/audit-logs".
	Path string
	// PageParam and SizeParam default to "page" and "size".
	PageParam string
	SizeParam string
	// SearchParam defaults to "search".
	SearchParam string
	// SortParam defaults to "sortBy". With OrderParam empty the direction is
	// folded into the sort value as "-key" for descending.
	SortParam  string
	OrderParam string
	// CollectionKeys are extra envelope keys the rows may sit under.
	CollectionKeys []string
	// FilterParams maps filter keys to query parameter names; unmapped keys
	// are sent under their own name.
	FilterParams map[string]string
	// OptionsPath serves the values of one filter; "{key}" is replaced by the
	// filter key. Empty means no options endpoint.
	OptionsPath string
}

func (e Endpoint) param(name, fallback string) string {
	if name == "" {
		return fallback
	}

	return name
}

// Query encodes a listing request as query parameters.
func (e Endpoint) Query(req listing.Request) url.Values {
	q := url.Values{}

	if req.Page > 0 {
		q.Set(e.param(e.PageParam, "page"), strconv.Itoa(req.Page))
		q.Set(e.param(e.SizeParam, "size"), strconv.Itoa(req.PageSize))
	}

	if req.Search != "" {
		q.Set(e.param(e.SearchParam, "search"), req.Search)
	}

	if req.Sort.Key != "" {
		sortParam := e.param(e.SortParam, "sortBy")

		switch {
		case e.OrderParam != "":
			q.Set(sortParam, req.Sort.Key)
			q.Set(e.OrderParam, string(req.Sort.Direction))
		case req.Sort.Direction == listing.Desc:
			q.Set(sortParam, "-"+req.Sort.Key)
		default:
			q.Set(sortParam, req.Sort.Key)
		}
	}

	for key, value := range req.Filters {
		if value == "" {
			continue
		}

		q.Set(e.param(e.FilterParams[key], key), value)
	}

	return q
}

// Resource is a typed collection of the admin API. It serves as the list
// Source and the filter OptionsSource of a listing controller.
type Resource[T any] struct {
	client   *Client
	endpoint Endpoint
	log      logger.Logger
}

// NewResource binds endpoint to client.
func NewResource[T any](client *Client, endpoint Endpoint) *Resource[T] {
	return &Resource[T]{
		client:   client,
		endpoint: endpoint,
		log:      client.log.WithFields(logger.F("resource", endpoint.Path)),
	}
}

// Endpoint returns the endpoint description.
func (r *Resource[T]) Endpoint() Endpoint { return r.endpoint }

// List fetches one page and normalizes its envelope. An unknown envelope is
// an empty page, not an error.
func (r *Resource[T]) List(ctx context.Context, req listing.Request) (listing.Page[T], error) {
	resp, err := r.client.Do(ctx, http.MethodGet, r.endpoint.Path, r.endpoint.Query(req), nil)
	if err != nil {
		return listing.Page[T]{}, err
	}

	rows, meta, shape, err := Normalize[T](resp.Body, r.endpoint.CollectionKeys...)
	if err != nil {
		return listing.Page[T]{}, &Error{
			Kind:      KindServer,
			Status:    resp.Status,
			Message:   err.Error(),
			Method:    http.MethodGet,
			Path:      r.endpoint.Path,
			RequestID: resp.RequestID,
			Err:       err,
		}
	}

	if shape == "" {
		r.log.WithFields(
			logger.F("request_id", resp.RequestID),
			logger.F("body_prefix", prefix(resp.Body, 120)),
		).Debug("unrecognized list envelope, treating as empty")
	}

	return listing.Page[T]{Rows: rows, Pagination: pagination(meta, req, len(rows))}, nil
}

// pagination derives the page metadata. Without a reported total it is
// inferred from the rows received and any reported page count; a full page
// with no page count keeps the next page reachable.
func pagination(meta Meta, req listing.Request, n int) listing.Pagination {
	size := req.PageSize
	if size <= 0 {
		size = meta.PageSize
	}

	page := req.Page
	if page <= 0 {
		page = max(meta.Page, 1)
	}

	if req.Page <= 0 {
		// The backend returned everything; paging is local.
		return listing.NewPagination(n, 1, 0)
	}

	total := meta.Total
	if !meta.HasTotal {
		total = (page-1)*size + n

		switch {
		case meta.TotalPages > page:
			total = max(total, (meta.TotalPages-1)*size+1)
		case meta.TotalPages == 0 && size > 0 && n >= size:
			total = max(total, page*size+1)
		}
	}

	return listing.NewPagination(total, page, size)
}

// FilterOptions loads the allowed values of a filter. It returns nil when the
// endpoint has no options path.
func (r *Resource[T]) FilterOptions(ctx context.Context, key string) ([]string, error) {
	if r.endpoint.OptionsPath == "" {
		return nil, nil
	}

	path := strings.ReplaceAll(r.endpoint.OptionsPath, "{key}", url.PathEscape(key))

	resp, err := r.client.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	items, _, _, err := Normalize[json.RawMessage](resp.Body, "options", "values", key)
	if err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.Status, Message: err.Error(), Method: http.MethodGet, Path: path, Err: err}
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		if value := optionValue(item); value != "" {
			out = append(out, value)
		}
	}

	return out, nil
}

func optionValue(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]any
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}

	for _, key := range []string{"value", "name", "label", "title"} {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

// Get fetches one item by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return r.one(ctx, http.MethodGet, r.itemPath(id), nil)
}

// Create posts a new item and returns the stored version.
func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	return r.one(ctx, http.MethodPost, r.endpoint.Path, body)
}

// Update patches an item.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (T, error) {
	return r.one(ctx, http.MethodPatch, r.itemPath(id), body)
}

// Delete removes an item.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)

	return err
}

// Action calls a sub-route of an item, such as PATCH /feedback/{id}/publish.
func (r *Resource[T]) Action(ctx context.Context, method, id, action string, body any) error {
	_, err := r.client.Do(ctx, method, r.itemPath(id)+"/"+strings.Trim(action, "/"), nil, body)

	return err
}

func (r *Resource[T]) one(ctx context.Context, method, path string, body any) (T, error) {
	var zero T

	resp, err := r.client.Do(ctx, method, path, nil, body)
	if err != nil {
		return zero, err
	}

	item, err := DecodeOne[T](resp.Body)
	if err != nil {
		return zero, &Error{Kind: KindServer, Status: resp.Status, Message: err.Error(), Method: method, Path: path, RequestID: resp.RequestID, Err: err}
	}

	return item, nil
}

func (r *Resource[T]) itemPath(id string) string {
	return strings.TrimRight(r.endpoint.Path, "/") + "/" + url.PathEscape(id)
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}

	return string(b)
}
