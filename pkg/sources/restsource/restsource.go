// Package restsource binds an HTTP JSON collection as a data source.
// Pair it with the json type system.
//
// The collection lives at the base URL: GET lists it, GET /{id} fetches
// one element, POST inserts, PUT /{id} replaces, DELETE /{id} removes.
// An insert's idempotency key travels as the Idempotency-Key request
// header; dedup is the server's job, as it is for any backend.
package restsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithIDField names the JSON field carrying an element's identifier
// (default "id").
func WithIDField(name string) Option {
	return func(s *Source) { s.idField = name }
}

// WithHeader adds a header to every request, e.g. an Authorization
// token.
func WithHeader(key, val string) Option {
	return func(s *Source) { s.headers.Set(key, val) }
}

// WithLogger sets the logger for skip diagnostics (default discards).
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// Source is an HTTP JSON collection data source.
type Source struct {
	base    string
	idField string
	client  *http.Client
	headers http.Header
	log     *slog.Logger
}

var _ source.Full = (*Source)(nil)

// New returns a source over the collection at baseURL.
func New(baseURL string, opts ...Option) *Source {
	s := &Source{
		base:    strings.TrimRight(baseURL, "/"),
		idField: "id",
		client:  http.DefaultClient,
		headers: http.Header{},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// elementURL addresses one element. Identifiers may carry slashes or
// other reserved characters, so the path segment is escaped.
func (s *Source) elementURL(id source.ID) string {
	return s.base + "/" + url.PathEscape(id.String())
}

func (s *Source) do(ctx context.Context, method, target string, body []byte, idempotencyKey string) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range s.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	return resp, nil
}

// statusError maps an HTTP status onto the source error taxonomy.
func statusError(status int) error {
	switch {
	case status == http.StatusNotFound:
		return source.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return source.ErrPermissionDenied
	case status == http.StatusConflict:
		return source.ErrWriteConflict
	case status >= 500:
		return fmt.Errorf("%w: server returned %d", source.ErrSourceUnavailable, status)
	default:
		return fmt.Errorf("server returned %d", status)
	}
}

// FetchAll lists the collection. Array elements that are not JSON
// objects or lack the identifier field cannot be addressed and are
// skipped.
func (s *Source) FetchAll(ctx context.Context) ([]source.Row, error) {
	resp, err := s.do(ctx, http.MethodGet, s.base, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	var elems []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&elems); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}

	rows := make([]source.Row, 0, len(elems))
	for i, raw := range elems {
		id, rec, err := s.element(raw)
		if err != nil {
			s.log.Debug("skipping unaddressable element", "index", i, "error", err)
			continue
		}
		rows = append(rows, source.Row{ID: id, Record: rec})
	}
	return rows, nil
}

// FetchOne fetches one element by identifier.
func (s *Source) FetchOne(ctx context.Context, id source.ID) (record.Record, error) {
	resp, err := s.do(ctx, http.MethodGet, s.elementURL(id), nil, "")
	if err != nil {
		return record.Record{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return record.Record{}, statusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return record.Record{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	_, rec, err := s.element(raw)
	if err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// Insert posts the record. The idempotency key travels as the
// Idempotency-Key header; a deduping server answers a replay with the
// original element.
func (s *Source) Insert(ctx context.Context, key string, rec record.Record) (source.ID, error) {
	body, err := json.Marshal(recordToJSON(rec))
	if err != nil {
		return source.ID{}, fmt.Errorf("failed to encode record: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPost, s.base, body, key)
	if err != nil {
		return source.ID{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return source.ID{}, statusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return source.ID{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	id, _, err := s.element(raw)
	if err != nil {
		return source.ID{}, fmt.Errorf("insert response: %w", err)
	}
	return id, nil
}

// Update replaces the element under id.
func (s *Source) Update(ctx context.Context, id source.ID, rec record.Record) error {
	body, err := json.Marshal(recordToJSON(rec))
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPut, s.elementURL(id), body, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp.StatusCode)
	}
	return nil
}

// Delete removes the element under id; a 404 counts as success.
func (s *Source) Delete(ctx context.Context, id source.ID) error {
	resp, err := s.do(ctx, http.MethodDelete, s.elementURL(id), nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return statusError(resp.StatusCode)
	}
}

// element parses one JSON object into an identifier and a record.
func (s *Source) element(raw []byte) (source.ID, record.Record, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return source.ID{}, record.Record{}, fmt.Errorf("element is not an object: %w", err)
	}
	idRaw, ok := obj[s.idField]
	if !ok {
		return source.ID{}, record.Record{}, fmt.Errorf("element lacks %q field", s.idField)
	}
	id, err := idOf(idRaw)
	if err != nil {
		return source.ID{}, record.Record{}, err
	}

	// Map iteration order is random; sort for a deterministic record.
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	rec := record.New()
	for _, name := range names {
		rec.Set(name, jsonValue(obj[name]))
	}
	return id, rec, nil
}

func idOf(raw any) (source.ID, error) {
	switch k := raw.(type) {
	case string:
		return source.StringID(k), nil
	case float64:
		if k != math.Trunc(k) {
			return source.ID{}, fmt.Errorf("identifier %v is not an integer", k)
		}
		return source.IntID(int64(k)), nil
	default:
		return source.ID{}, fmt.Errorf("unsupported identifier type %T", raw)
	}
}

// jsonValue maps decoded JSON onto the json type system's native value
// shapes. Numbers stay floats; the type system owns integer coercion.
func jsonValue(raw any) value.Value {
	switch k := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(k)
	case float64:
		return value.Float(k)
	case string:
		return value.Str(k)
	case []any:
		elems := make([]value.Value, len(k))
		for i, e := range k {
			elems[i] = jsonValue(e)
		}
		return value.Array(elems...)
	case map[string]any:
		names := make([]string, 0, len(k))
		for name := range k {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]value.ObjectField, 0, len(names))
		for _, name := range names {
			fields = append(fields, value.ObjectField{Name: name, Value: jsonValue(k[name])})
		}
		return value.Object(fields...)
	default:
		// json.Unmarshal into any produces no other types.
		return value.Null()
	}
}

// recordToJSON renders a record as a JSON-marshallable map.
func recordToJSON(rec record.Record) map[string]any {
	out := make(map[string]any, rec.Len())
	for _, p := range rec.Pairs() {
		out[p.Name] = valueJSON(p.Value)
	}
	return out
}

func valueJSON(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		i, _ := v.AsInt()
		return i
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindArray:
		items, _ := v.Items()
		out := make([]any, len(items))
		for i, e := range items {
			out[i] = valueJSON(e)
		}
		return out
	case value.KindObject:
		fields, _ := v.Fields()
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.Name] = valueJSON(f.Value)
		}
		return out
	}
	return nil
}
