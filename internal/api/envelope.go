package api

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Meta is the pagination metadata found in a response, if any.
type Meta struct {
	Total      int
	HasTotal   bool
	Page       int
	PageSize   int
	TotalPages int
}

// extractor locates the row array of one envelope shape.
type extractor struct {
	name string
	path []string
}

// extractors lists the known row locations in priority order. The first one
// whose array decodes into the row type wins.
func extractors(collectionKeys []string) []extractor {
	out := []extractor{
		{name: "data.data", path: []string{"data", "data"}},
		{name: "data.items", path: []string{"data", "items"}},
	}

	for _, key := range collectionKeys {
		out = append(out, extractor{name: "data." + key, path: []string{"data", key}})
	}

	out = append(out,
		extractor{name: "data", path: []string{"data"}},
		extractor{name: "items", path: []string{"items"}},
	)

	for _, key := range collectionKeys {
		out = append(out, extractor{name: key, path: []string{key}})
	}

	return append(out,
		extractor{name: "results", path: []string{"results"}},
		extractor{name: "array", path: nil},
	)
}

var (
	metaContainers = [][]string{{"pagination"}, {"data", "pagination"}, {"meta"}, {"data", "meta"}, {"data"}, nil}
	totalKeys      = []string{"total", "totalCount", "totalItems", "totalElements", "total_count", "total_items", "total_elements", "totalRecords"}
	pageKeys       = []string{"currentPage", "current_page", "page", "pageNumber", "page_number"}
	pageSizeKeys   = []string{"pageSize", "page_size", "size", "limit", "perPage", "per_page"}
	totalPageKeys  = []string{"totalPages", "total_pages", "pages", "lastPage", "last_page"}
)

// Normalize decodes the rows of a list response whatever envelope wraps them.
// shape names the matching extractor and is empty when no known shape
// matched, in which case rows is empty and err is nil. err is only returned
// for a body that is not JSON at all.
func Normalize[T any](body []byte, collectionKeys ...string) (rows []T, meta Meta, shape string, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []T{}, Meta{}, "", nil
	}

	if !json.Valid(body) {
		return nil, Meta{}, "", errMalformed
	}

	for _, ex := range extractors(collectionKeys) {
		raw, ok := lookup(body, ex.path)
		if !ok || !isArray(raw) {
			continue
		}

		var decoded []T
		if json.Unmarshal(raw, &decoded) != nil {
			continue
		}

		if decoded == nil {
			decoded = []T{}
		}

		return decoded, findMeta(body), ex.name, nil
	}

	return []T{}, findMeta(body), "", nil
}

// DecodeOne decodes a single object response, either bare or under "data".
func DecodeOne[T any](body []byte) (T, error) {
	var out T

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return out, nil
	}

	if raw, ok := lookup(body, []string{"data"}); ok && isObject(raw) {
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, errMalformed
	}

	return out, nil
}

func findMeta(body []byte) Meta {
	var meta Meta

	for _, path := range metaContainers {
		raw, ok := lookup(body, path)
		if !ok || !isObject(raw) {
			continue
		}

		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) != nil {
			continue
		}

		total, hasTotal := firstInt(obj, totalKeys)
		pages, hasPages := firstInt(obj, totalPageKeys)

		if !hasTotal && !hasPages {
			continue
		}

		meta.Total, meta.HasTotal = total, hasTotal
		meta.TotalPages = pages
		meta.Page, _ = firstInt(obj, pageKeys)
		meta.PageSize, _ = firstInt(obj, pageSizeKeys)

		return meta
	}

	return meta
}

func lookup(body []byte, path []string) (json.RawMessage, bool) {
	cur := json.RawMessage(body)

	for _, key := range path {
		if !isObject(cur) {
			return nil, false
		}

		var obj map[string]json.RawMessage
		if json.Unmarshal(cur, &obj) != nil {
			return nil, false
		}

		next, ok := obj[key]
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

func firstInt(obj map[string]json.RawMessage, keys []string) (int, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}

		if n, ok := asInt(raw); ok {
			return n, true
		}
	}

	return 0, false
}

// asInt accepts JSON numbers and numeric strings.
func asInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	if json.Unmarshal(raw, &n) != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}

		n = json.Number(strings.TrimSpace(s))
	}

	if i, err := strconv.Atoi(n.String()); err == nil {
		return max(i, 0), true
	}

	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return max(int(f), 0), true
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)

	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)

	return len(raw) > 0 && raw[0] == '{'
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
