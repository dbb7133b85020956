// Package service talks to an OData endpoint over HTTP. It resolves entity
// and collection URLs, executes queries, loads navigation properties on
// demand, and writes local changes back with minimal PATCH payloads.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/SimonThordal/go-odata/cache"
	"github.com/SimonThordal/go-odata/entity"
	"github.com/SimonThordal/go-odata/query"
)

// Service is a connection to one OData endpoint. It implements
// query.Executor, so queries built through Query execute against it.
//
// A Service is safe for concurrent use when its http.Client is.
type Service struct {
	baseURL  string
	client   *http.Client
	headers  http.Header
	username string
	password string
	store    *cache.Store
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(s *Service) { s.headers.Set(key, value) }
}

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) Option {
	return func(s *Service) {
		s.username = username
		s.password = password
	}
}

// WithTokenAuth authenticates every request with a bearer token.
func WithTokenAuth(token string) Option {
	return func(s *Service) { s.headers.Set("Authorization", "Bearer "+token) }
}

// WithCache attaches a response cache. Cached responses are revalidated
// with conditional requests and replayed on 304 Not Modified.
func WithCache(store *cache.Store) Option {
	return func(s *Service) { s.store = store }
}

// New creates a connection to the endpoint at baseURL. Every entity type
// already in the registry is anchored to it; use Bind for types declared
// later.
func New(baseURL string, opts ...Option) (*Service, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	s := &Service{
		baseURL: baseURL,
		client:  http.DefaultClient,
		headers: http.Header{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.BindRegistered()
	return s, nil
}

// BaseURL returns the normalized endpoint URL, always slash-terminated.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// Bind anchors the given entity types to this endpoint, so their URLs
// resolve against the service base.
func (s *Service) Bind(types ...*entity.Type) {
	for _, t := range types {
		t.SetURLBase(s.baseURL)
	}
}

// BindRegistered anchors every registered entity type to this endpoint.
func (s *Service) BindRegistered() {
	for _, t := range entity.RegisteredTypes() {
		t.SetURLBase(s.baseURL)
	}
}

// Query starts a query against the type's collection.
func (s *Service) Query(t *entity.Type) *query.Query {
	return query.New(t, s)
}

// Load fetches a single entity by primary key.
func (s *Service) Load(ctx context.Context, t *entity.Type, key any) (*entity.Entity, error) {
	pk, ok := t.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("service: %s declares no primary key", t.Name())
	}
	coerced, err := pk.FromRaw(key)
	if err != nil {
		return nil, fmt.Errorf("service: bad key for %s: %w", t.Name(), err)
	}
	collection, err := t.URL()
	if err != nil {
		return nil, err
	}
	payload, err := s.getJSON(ctx, collection+"("+pk.EscapeValue(coerced)+")")
	if err != nil {
		return nil, err
	}
	return entity.FromData(t, payload)
}

// LoadNavigation resolves a navigation property, fetching it from the
// service unless a resolution is already cached on the instance.
func (s *Service) LoadNavigation(ctx context.Context, e *entity.Entity, name string) (entity.NavValue, error) {
	nv, resolved, err := e.Navigation(name)
	if err != nil {
		return entity.NavValue{}, err
	}
	if resolved {
		return nv, nil
	}

	base, err := s.entityURL(e)
	if err != nil {
		return entity.NavValue{}, err
	}
	payload, err := s.getJSON(ctx, base+"/"+name)
	if err != nil {
		return entity.NavValue{}, err
	}

	var raw any
	switch {
	case payload == nil:
		// 204 from a single-valued property that resolves to none.
		raw = nil
	case isCollectionNav(e.Type(), name):
		raw = payload["value"]
	default:
		raw = payload
	}
	if err := e.ResolveNavigation(name, raw); err != nil {
		return entity.NavValue{}, err
	}
	nv, _, err = e.Navigation(name)
	return nv, err
}

// Create inserts the entity into its collection. Fields the server echoes
// back, server-generated keys included, become the instance's new clean
// baseline.
func (s *Service) Create(ctx context.Context, e *entity.Entity) error {
	body := e.State().Values()
	for name, v := range body {
		if v == nil && !e.State().IsDirty(name) {
			delete(body, name)
		}
	}
	collection, err := e.Type().URL()
	if err != nil {
		return err
	}
	payload, err := s.send(ctx, http.MethodPost, collection, body)
	if err != nil {
		return err
	}
	if payload != nil {
		return e.ApplyData(payload)
	}
	e.State().MarkClean()
	return nil
}

// Save writes local changes back with a PATCH carrying only the dirty
// fields. A clean entity is a no-op. On success the entity is clean and
// its cached navigations are invalidated, since a write can change what
// the service relates.
func (s *Service) Save(ctx context.Context, e *entity.Entity) error {
	dirty := e.State().DirtyValues()
	if len(dirty) == 0 {
		return nil
	}
	u, err := s.entityURL(e)
	if err != nil {
		return err
	}
	payload, err := s.send(ctx, http.MethodPatch, u, dirty)
	if err != nil {
		return err
	}
	if payload != nil {
		if err := e.ApplyData(payload); err != nil {
			return err
		}
	} else {
		e.State().MarkClean()
	}
	e.State().InvalidateNavigations()
	if s.store != nil {
		s.store.Delete(u)
	}
	return nil
}

// Delete removes the entity from the service.
func (s *Service) Delete(ctx context.Context, e *entity.Entity) error {
	u, err := s.entityURL(e)
	if err != nil {
		return err
	}
	if _, err := s.send(ctx, http.MethodDelete, u, nil); err != nil {
		return err
	}
	if s.store != nil {
		s.store.Delete(u)
	}
	return nil
}

// FetchPage implements query.Executor for the first page of a query.
func (s *Service) FetchPage(ctx context.Context, t *entity.Type, values url.Values) (*query.Page, error) {
	u, err := t.URL()
	if err != nil {
		return nil, err
	}
	if enc := values.Encode(); enc != "" {
		u += "?" + enc
	}
	payload, err := s.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	return pageFromPayload(payload)
}

// FetchNext implements query.Executor for @odata.nextLink continuations.
// Relative links resolve against the service base.
func (s *Service) FetchNext(ctx context.Context, nextLink string) (*query.Page, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	ref, err := url.Parse(nextLink)
	if err != nil {
		return nil, fmt.Errorf("parse next link: %w", err)
	}
	payload, err := s.getJSON(ctx, base.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}
	return pageFromPayload(payload)
}

func (s *Service) entityURL(e *entity.Entity) (string, error) {
	key, ok := e.Type().PrimaryKey()
	if !ok {
		return "", fmt.Errorf("service: %s declares no primary key", e.Type().Name())
	}
	v, ok := e.State().PrimaryKeyValue()
	if !ok {
		return "", fmt.Errorf("service: %s has no primary key value", e)
	}
	collection, err := e.Type().URL()
	if err != nil {
		return "", err
	}
	return collection + "(" + key.EscapeValue(v) + ")", nil
}

func (s *Service) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range s.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if s.username != "" || s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}
	return req, nil
}

// getJSON fetches a JSON document. With a cache attached the request is
// conditional: a known ETag is sent as If-None-Match and a 304 answer
// replays the stored payload.
func (s *Service) getJSON(ctx context.Context, rawURL string) (map[string]any, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	var cached *cache.Entry
	if s.store != nil {
		if entry, err := s.store.Get(rawURL); err == nil && entry.ETag != "" {
			cached = entry
			req.Header.Set("If-None-Match", entry.ETag)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return cached.Payload, nil
	}
	if resp.StatusCode >= 400 {
		return nil, readError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if s.store != nil {
		if etag := resp.Header.Get("ETag"); etag != "" {
			s.store.Put(rawURL, etag, payload)
		}
	}
	return payload, nil
}

// send issues a write request with an optional JSON body. It returns the
// decoded response payload, or nil for bodyless answers like 204.
func (s *Service) send(ctx context.Context, method, rawURL string, body map[string]any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := s.newRequest(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return nil, nil
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// readError drains a failed response into an *Error, picking up the OData
// error envelope when the body carries one.
func readError(resp *http.Response) error {
	out := &Error{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		out.Code = envelope.Error.Code
		out.Message = envelope.Error.Message
	}
	return out
}

func isCollectionNav(t *entity.Type, name string) bool {
	prop, ok := t.PropertyByName(name)
	if !ok {
		return false
	}
	nav, ok := prop.(*entity.NavigationProperty)
	return ok && nav.IsCollection()
}

// pageFromPayload reads one collection response page.
func pageFromPayload(payload map[string]any) (*query.Page, error) {
	page := &query.Page{}

	if raw, ok := payload["value"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("decode response: value is not a list")
		}
		page.Values = make([]map[string]any, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode response: list entry is not an object")
			}
			page.Values = append(page.Values, m)
		}
	}

	if link, ok := payload["@odata.nextLink"].(string); ok {
		page.NextLink = link
	}
	switch count := payload["@odata.count"].(type) {
	case float64:
		page.Count = int64(count)
	case string:
		// some services serialize the count annotation as a string.
		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode response: bad count %q", count)
		}
		page.Count = n
	}

	return page, nil
}
