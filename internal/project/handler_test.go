package project

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/store"
)

type openSet map[string]bool

func (o openSet) Active(id string) bool { return o[id] }

func newTestRouter(t *testing.T, open openSet) *mux.Router {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "canvas.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	NewHandler(NewService(db, open)).RegisterRoutes(api)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createProject(t *testing.T, r http.Handler, body any) store.Project {
	t.Helper()
	rec := do(t, r, "POST", "/api/projects", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	var p store.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProjectLifecycle(t *testing.T) {
	r := newTestRouter(t, openSet{})

	p := createProject(t, r, createRequest{Name: "  Architecture  "})
	if p.Name != "Architecture" {
		t.Errorf("name = %q, want trimmed", p.Name)
	}

	rec := do(t, r, "GET", "/api/projects", nil)
	var list []store.Project
	json.Unmarshal(rec.Body.Bytes(), &list)
	if rec.Code != http.StatusOK || len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, r, "PATCH", "/api/projects/"+p.ID, renameRequest{Name: "Overview"})
	var renamed store.Project
	json.Unmarshal(rec.Body.Bytes(), &renamed)
	if rec.Code != http.StatusOK || renamed.Name != "Overview" {
		t.Errorf("rename: %d %s", rec.Code, rec.Body)
	}

	if rec := do(t, r, "DELETE", "/api/projects/"+p.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec := do(t, r, "GET", "/api/projects/"+p.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", rec.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	r := newTestRouter(t, openSet{})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"blank name", createRequest{Name: "   "}, http.StatusBadRequest},
		{"long name", createRequest{Name: string(bytes.Repeat([]byte("x"), maxNameLength+1))}, http.StatusBadRequest},
		{"ok", createRequest{Name: "x"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, r, "POST", "/api/projects", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestCanvasRoundTrip(t *testing.T) {
	r := newTestRouter(t, openSet{})
	p := createProject(t, r, createRequest{Name: "Demo", Sample: true})

	rec := do(t, r, "GET", "/api/projects/"+p.ID+"/canvas", nil)
	var c store.Canvas
	json.Unmarshal(rec.Body.Bytes(), &c)
	if rec.Code != http.StatusOK || len(c.Scene.Nodes) != 2 || len(c.Scene.Connections) != 1 {
		t.Fatalf("sample canvas: %d %s", rec.Code, rec.Body)
	}

	c.Scene.Nodes[0].X = 999
	c.Properties.Viewport = document.Viewport{}
	if rec := do(t, r, "PUT", "/api/projects/"+p.ID+"/canvas", c); rec.Code != http.StatusNoContent {
		t.Fatalf("put: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, r, "GET", "/api/projects/"+p.ID+"/canvas", nil)
	var got store.Canvas
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Scene.Nodes[0].X != 999 {
		t.Errorf("x = %v, want 999", got.Scene.Nodes[0].X)
	}
	if got.Properties.Viewport.Scale != 1 {
		t.Errorf("zero viewport not defaulted: %+v", got.Properties.Viewport)
	}
}

func TestPutCanvasRejectsDanglingConnection(t *testing.T) {
	r := newTestRouter(t, openSet{})
	p := createProject(t, r, createRequest{Name: "Demo"})

	c := store.Canvas{Scene: document.Scene{
		Connections: []document.Connection{{
			ID:     "conn_1",
			Source: document.Endpoint{ObjectID: "gone", AnchorID: "right-mid"},
			Target: document.Endpoint{ObjectID: "also-gone", AnchorID: "left-mid"},
		}},
	}}
	if rec := do(t, r, "PUT", "/api/projects/"+p.ID+"/canvas", c); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWritesRefusedWhileOpen(t *testing.T) {
	open := openSet{}
	r := newTestRouter(t, open)
	p := createProject(t, r, createRequest{Name: "Busy"})
	open[p.ID] = true

	if rec := do(t, r, "PUT", "/api/projects/"+p.ID+"/canvas", store.Canvas{}); rec.Code != http.StatusConflict {
		t.Errorf("put: %d, want 409", rec.Code)
	}
	if rec := do(t, r, "DELETE", "/api/projects/"+p.ID, nil); rec.Code != http.StatusConflict {
		t.Errorf("delete: %d, want 409", rec.Code)
	}
	if rec := do(t, r, "GET", "/api/projects/"+p.ID+"/canvas", nil); rec.Code != http.StatusOK {
		t.Errorf("reads should still work: %d", rec.Code)
	}
}

func TestMissingProjectRoutes(t *testing.T) {
	r := newTestRouter(t, openSet{})
	tests := []struct {
		method, path string
		body         any
	}{
		{"GET", "/api/projects/proj_missing", nil},
		{"PATCH", "/api/projects/proj_missing", renameRequest{Name: "x"}},
		{"DELETE", "/api/projects/proj_missing", nil},
		{"GET", "/api/projects/proj_missing/canvas", nil},
		{"PUT", "/api/projects/proj_missing/canvas", store.Canvas{}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := do(t, r, tt.method, tt.path, tt.body); rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404 (%s)", rec.Code, rec.Body)
			}
		})
	}
}
