package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SimonThordal/go-odata/cache"
	"github.com/SimonThordal/go-odata/entity"
	"github.com/SimonThordal/go-odata/expr"
)

func declareTypes(t *testing.T) (product, category *entity.Type) {
	t.Helper()
	entity.ClearRegistry()
	category = entity.MustNewType("Demo.Category", "Categories",
		entity.Integer("Id", entity.PrimaryKey()),
		entity.String("Name"),
	)
	product = entity.MustNewType("Demo.Product", "Products",
		entity.Integer("Id", entity.PrimaryKey()),
		entity.String("Name"),
		entity.Float("Price"),
		entity.Navigation("Category", "Demo.Category"),
		entity.NavigationCollection("Parts", "Demo.Category"),
	)
	entity.MustRegister(category)
	entity.MustRegister(product)
	return product, category
}

// newService spins up a test server and a connection bound to it.
func newService(t *testing.T, handler http.Handler, opts ...Option) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, srv
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func TestNew_NormalizesBase(t *testing.T) {
	s, err := New("https://svc/odata")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.BaseURL() != "https://svc/odata/" {
		t.Errorf("BaseURL = %q", s.BaseURL())
	}
}

func TestBind_AnchorsCollectionURLs(t *testing.T) {
	product, _ := declareTypes(t)
	s, err := New("https://svc/odata")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.Bind(product)
	got, err := product.URL()
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	if got != "https://svc/odata/Products" {
		t.Errorf("URL = %q", got)
	}
}

func TestLoad(t *testing.T) {
	product, _ := declareTypes(t)
	var gotPath string
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, 200, map[string]any{"Id": 7, "Name": "Kettle", "Price": 19.5})
	}))
	s.BindRegistered()

	e, err := s.Load(context.Background(), product, 7)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotPath != "/Products(7)" {
		t.Errorf("path = %q", gotPath)
	}
	if v, _ := e.Get("Name"); v != "Kettle" {
		t.Errorf("Name = %v", v)
	}
	if len(e.State().Dirty()) != 0 {
		t.Errorf("loaded entity should be clean")
	}
}

func TestLoad_NotFound(t *testing.T) {
	product, _ := declareTypes(t)
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{
			"error": map[string]any{"code": "NotFound", "message": "no such product"},
		})
	}))
	s.BindRegistered()

	_, err := s.Load(context.Background(), product, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if svcErr.Code != "NotFound" || svcErr.Message != "no such product" {
		t.Errorf("envelope = %q %q", svcErr.Code, svcErr.Message)
	}
}

func TestQuery_EndToEnd(t *testing.T) {
	product, _ := declareTypes(t)
	var gotFilter string
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.RawQuery {
		case "":
			writeJSON(w, 200, map[string]any{
				"value": []any{map[string]any{"Id": 2, "Name": "Teapot"}},
			})
		default:
			gotFilter = r.URL.Query().Get("$filter")
			writeJSON(w, 200, map[string]any{
				"value":           []any{map[string]any{"Id": 1, "Name": "Kettle"}},
				"@odata.nextLink": "Products",
			})
		}
	}))
	s.BindRegistered()

	results, err := s.Query(product).Filter(expr.Gt("Price", 10)).All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if gotFilter != "Price gt 10" {
		t.Errorf("$filter = %q", gotFilter)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].String() != "Entity(Product:2)" {
		t.Errorf("second = %s", results[1])
	}
}

func TestLoadNavigation_Single(t *testing.T) {
	product, _ := declareTypes(t)
	var gotPath string
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, 200, map[string]any{"Id": 3, "Name": "Kitchen"})
	}))
	s.BindRegistered()

	e, err := entity.FromData(product, map[string]any{"Id": 7})
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	nv, err := s.LoadNavigation(context.Background(), e, "Category")
	if err != nil {
		t.Fatalf("LoadNavigation failed: %v", err)
	}
	if gotPath != "/Products(7)/Category" {
		t.Errorf("path = %q", gotPath)
	}
	if nv.Entity == nil {
		t.Fatal("expected a related entity")
	}
	if v, _ := nv.Entity.Get("Name"); v != "Kitchen" {
		t.Errorf("related Name = %v", v)
	}

	// second access is served from the instance cache.
	srvCalls := gotPath
	nv2, err := s.LoadNavigation(context.Background(), e, "Category")
	if err != nil {
		t.Fatalf("cached LoadNavigation failed: %v", err)
	}
	if nv2.Entity != nv.Entity {
		t.Errorf("expected the cached instance")
	}
	if gotPath != srvCalls {
		t.Errorf("cached access should not hit the server")
	}
}

func TestLoadNavigation_Collection(t *testing.T) {
	product, _ := declareTypes(t)
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"value": []any{
			map[string]any{"Id": 1, "Name": "Lid"},
			map[string]any{"Id": 2, "Name": "Spout"},
		}})
	}))
	s.BindRegistered()

	e, err := entity.FromData(product, map[string]any{"Id": 7})
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	nv, err := s.LoadNavigation(context.Background(), e, "Parts")
	if err != nil {
		t.Fatalf("LoadNavigation failed: %v", err)
	}
	if !nv.Collection || len(nv.Entities) != 2 {
		t.Fatalf("expected 2 related entities, got %#v", nv)
	}
	if v, _ := nv.Entities[1].Get("Name"); v != "Spout" {
		t.Errorf("second related Name = %v", v)
	}
}

func TestCreate(t *testing.T) {
	product, _ := declareTypes(t)
	var gotMethod string
	var gotBody map[string]any
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, 201, map[string]any{"Id": 42, "Name": gotBody["Name"], "Price": gotBody["Price"]})
	}))
	s.BindRegistered()

	e := entity.New(product)
	e.Set("Name", "Kettle")
	e.Set("Price", 19.5)
	if err := s.Create(context.Background(), e); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s", gotMethod)
	}
	if _, present := gotBody["Id"]; present {
		t.Errorf("unset key should not be sent, body = %v", gotBody)
	}
	// the server-generated key becomes part of the clean baseline.
	if v, _ := e.Get("Id"); v != int64(42) {
		t.Errorf("Id = %v", v)
	}
	if len(e.State().Dirty()) != 0 {
		t.Errorf("created entity should be clean, dirty = %v", e.State().Dirty())
	}
}

func TestSave_PatchesDirtyOnly(t *testing.T) {
	product, _ := declareTypes(t)
	var gotMethod, gotPath string
	var gotBody map[string]any
	calls := 0
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(204)
	}))
	s.BindRegistered()

	e, err := entity.FromData(product, map[string]any{"Id": 7, "Name": "Kettle", "Price": 19.5})
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	e.Set("Price", 24.0)

	if err := s.Save(context.Background(), e); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/Products(7)" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if len(gotBody) != 1 || gotBody["Price"] != 24.0 {
		t.Errorf("body = %v, want only Price", gotBody)
	}
	if len(e.State().Dirty()) != 0 {
		t.Errorf("saved entity should be clean")
	}

	// a clean entity saves without touching the wire.
	if err := s.Save(context.Background(), e); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("clean save hit the server, calls = %d", calls)
	}
}

func TestSave_InvalidatesNavigations(t *testing.T) {
	product, _ := declareTypes(t)
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(204)
	}))
	s.BindRegistered()

	e, err := entity.FromData(product, map[string]any{
		"Id":       7,
		"Category": map[string]any{"Id": 3, "Name": "Kitchen"},
	})
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	if _, resolved, _ := e.Navigation("Category"); !resolved {
		t.Fatal("Category should be resolved from the embedded payload")
	}

	e.Set("Name", "New name")
	if err := s.Save(context.Background(), e); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, resolved, _ := e.Navigation("Category"); resolved {
		t.Errorf("saved entity should drop cached navigations")
	}
}

func TestDelete(t *testing.T) {
	product, _ := declareTypes(t)
	var gotMethod, gotPath string
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(204)
	}))
	s.BindRegistered()

	e, err := entity.FromData(product, map[string]any{"Id": 7})
	if err != nil {
		t.Fatalf("FromData failed: %v", err)
	}
	if err := s.Delete(context.Background(), e); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/Products(7)" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestConditionalGet(t *testing.T) {
	product, _ := declareTypes(t)
	store, err := cache.Open(filepath.Join(t.TempDir(), "responses.db"))
	if err != nil {
		t.Fatalf("cache.Open failed: %v", err)
	}
	defer store.Close()

	calls := 0
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("If-None-Match") == `W/"v1"` {
			w.WriteHeader(304)
			return
		}
		w.Header().Set("ETag", `W/"v1"`)
		writeJSON(w, 200, map[string]any{"Id": 7, "Name": "Kettle"})
	}), WithCache(store))
	s.BindRegistered()

	e, err := s.Load(context.Background(), product, 7)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if v, _ := e.Get("Name"); v != "Kettle" {
		t.Errorf("Name = %v", v)
	}

	// the second load revalidates and replays the stored payload.
	e, err = s.Load(context.Background(), product, 7)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if v, _ := e.Get("Name"); v != "Kettle" {
		t.Errorf("replayed Name = %v", v)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
}

func TestAuthAndHeaders(t *testing.T) {
	product, _ := declareTypes(t)
	var gotAuth, gotExtra string
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotExtra = r.Header.Get("X-Client")
		writeJSON(w, 200, map[string]any{"Id": 7})
	}), WithTokenAuth("tok-123"), WithHeader("X-Client", "go-odata"))
	s.BindRegistered()

	if _, err := s.Load(context.Background(), product, 7); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotExtra != "go-odata" {
		t.Errorf("X-Client = %q", gotExtra)
	}

	s2, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(401)
			return
		}
		writeJSON(w, 200, map[string]any{"Id": 7})
	}), WithBasicAuth("alice", "secret"))
	s2.BindRegistered()
	if _, err := s2.Load(context.Background(), product, 7); err != nil {
		t.Fatalf("basic auth Load failed: %v", err)
	}
}

func TestCount(t *testing.T) {
	product, _ := declareTypes(t)
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$count") != "true" {
			t.Errorf("$count not requested")
		}
		writeJSON(w, 200, map[string]any{"@odata.count": 132, "value": []any{}})
	}))
	s.BindRegistered()

	n, err := s.Query(product).Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 132 {
		t.Errorf("Count = %d", n)
	}
}

func TestReadError_PlainBody(t *testing.T) {
	product, _ := declareTypes(t)
	s, _ := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		io.WriteString(w, "internal error")
	}))
	s.BindRegistered()

	_, err := s.Load(context.Background(), product, 7)
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if svcErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d", svcErr.StatusCode)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("500 must not read as not-found")
	}
}
