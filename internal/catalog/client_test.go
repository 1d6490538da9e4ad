package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorded captures the last request the test server saw
type recorded struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = make(map[string]string)
		for k := range r.URL.Query() {
			rec.query[k] = r.URL.Query().Get(k)
		}
		rec.auth = r.Header.Get("Authorization")
		rec.body, _ = io.ReadAll(r.Body)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", testLogger()), rec
}

func serveJSON(v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

func TestListParsesPage(t *testing.T) {
	client, rec := newTestClient(t, serveJSON(pageDTO{
		Count: 42,
		Results: []logoDTO{
			{ID: 1, Name: "  One  ", URL: "https://cdn.example.com/1.png", ChannelCount: 2},
			{ID: 2, Name: "Two", CacheURL: "/media/logos/2.png"},
		},
	}))

	logos, total, err := client.List(context.Background(), domain.FilterAll, 0, 25)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}
	if len(logos) != 2 {
		t.Fatalf("got %d logos, want 2", len(logos))
	}
	if logos[0].Name != "One" {
		t.Errorf("Name = %q, want whitespace trimmed", logos[0].Name)
	}
	if rec.path != "/api/channels/logos/" {
		t.Errorf("path = %q", rec.path)
	}
	if rec.query["page"] != "1" || rec.query["page_size"] != "25" {
		t.Errorf("pagination query = %v", rec.query)
	}
	if rec.auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", rec.auth)
	}
}

func TestListFilterQueries(t *testing.T) {
	tests := []struct {
		filter domain.ListFilter
		param  string
	}{
		{domain.FilterUsed, "used"},
		{domain.FilterChannelAssignable, "channel_assignable"},
	}
	for _, tt := range tests {
		client, rec := newTestClient(t, serveJSON(pageDTO{}))
		if _, _, err := client.List(context.Background(), tt.filter, 0, 10); err != nil {
			t.Fatalf("List(%v) error = %v", tt.filter, err)
		}
		if rec.query[tt.param] != "true" {
			t.Errorf("filter %v: query %q = %q, want true", tt.filter, tt.param, rec.query[tt.param])
		}
	}
}

func TestListAllUnpaginated(t *testing.T) {
	client, rec := newTestClient(t, serveJSON([]logoDTO{
		{ID: 1, Name: "One"},
		{ID: 0, Name: "Dropped"}, // no server id, skipped by the mapper
		{ID: 3, Name: "Three"},
	}))

	logos, err := client.ListAll(context.Background(), domain.FilterAll)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(logos) != 2 {
		t.Errorf("got %d logos, want 2 (zero-id record dropped)", len(logos))
	}
	if rec.query["no_pagination"] != "true" {
		t.Errorf("no_pagination = %q, want true", rec.query["no_pagination"])
	}
}

func TestGetByIDsQuery(t *testing.T) {
	client, rec := newTestClient(t, serveJSON([]logoDTO{{ID: 7, Name: "Seven"}}))

	logos, err := client.GetByIDs(context.Background(), []int64{7, 12, 99})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(logos) != 1 {
		t.Errorf("got %d logos, want 1", len(logos))
	}
	if rec.query["ids"] != "7,12,99" {
		t.Errorf("ids = %q, want %q", rec.query["ids"], "7,12,99")
	}
	if rec.query["no_pagination"] != "true" {
		t.Errorf("no_pagination = %q, want true", rec.query["no_pagination"])
	}
}

func TestGetByIDsEmptySkipsRequest(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	logos, err := client.GetByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetByIDs(nil) error = %v", err)
	}
	if logos != nil || called {
		t.Error("empty GetByIDs must not hit the network")
	}
}

func TestCreate(t *testing.T) {
	client, rec := newTestClient(t, serveJSON(logoDTO{ID: 10, Name: "New", URL: "https://cdn.example.com/n.png"}))

	logo, err := client.Create(context.Background(), "New", "https://cdn.example.com/n.png")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if logo.ID != 10 {
		t.Errorf("ID = %d, want 10", logo.ID)
	}
	if rec.method != http.MethodPost {
		t.Errorf("method = %q, want POST", rec.method)
	}
	var sent createDTO
	if err := json.Unmarshal(rec.body, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent.Name != "New" {
		t.Errorf("sent name = %q", sent.Name)
	}
}

func TestUpdatePatchesByID(t *testing.T) {
	client, rec := newTestClient(t, serveJSON(logoDTO{ID: 7, Name: "Renamed"}))

	name := "Renamed"
	logo, err := client.Update(context.Background(), 7, domain.LogoUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if logo.Name != "Renamed" {
		t.Errorf("Name = %q", logo.Name)
	}
	if rec.method != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", rec.method)
	}
	if rec.path != "/api/channels/logos/7/" {
		t.Errorf("path = %q", rec.path)
	}
	// nil fields stay out of the payload
	var sent map[string]interface{}
	if err := json.Unmarshal(rec.body, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if _, ok := sent["url"]; ok {
		t.Error("unset url field was sent in the patch")
	}
}

func TestDelete(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if rec.method != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", rec.method)
	}
	if rec.path != "/api/channels/logos/3/" {
		t.Errorf("path = %q", rec.path)
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuthFailed},
		{http.StatusNotFound, domain.ErrLogoNotFound},
	}
	for _, tt := range tests {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := client.ListAll(context.Background(), domain.FilterAll)
		if err != tt.want {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestTransportErrorMapsToOffline(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "token", testLogger())
	_, err := client.ListAll(context.Background(), domain.FilterAll)
	if err != domain.ErrServerOffline {
		t.Errorf("error = %v, want ErrServerOffline", err)
	}
}
