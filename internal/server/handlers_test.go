package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/healthboard/internal/snapshot"
	"github.com/jpalmerr/healthboard/internal/store"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

// do sends a request through the full handler chain.
func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}

func TestHealth_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestCreateCategory(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/categories", `{"category_name": "services"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"services": {}}`, rec.Body.String())
	assert.Contains(t, st.GetAll(), "services")
}

func TestCreateCategory_Existing(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")

	rec := do(t, srv.Handler(), http.MethodPost, "/api/categories", `{"category_name": "services"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Category 'services' already exists", body["note"])
	items, ok := body["services"].(map[string]any)
	require.True(t, ok, "body: %s", rec.Body.String())
	assert.Contains(t, items, "database")
}

func TestCreateCategory_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"no body", "", "Invalid JSON payload"},
		{"malformed", `{"category_name": `, "Invalid JSON payload"},
		{"missing field", `{"name": "services"}`, "Missing category_name"},
		{"empty name", `{"category_name": ""}`, "Invalid category_name: Name cannot be empty"},
		{"too long", `{"category_name": "` + strings.Repeat("a", 51) + `"}`,
			"Invalid category_name: Name exceeds maximum length of 50 characters"},
		{"bad chars", `{"category_name": "a/b"}`,
			"Invalid category_name: Name contains invalid characters. Allowed: letters, numbers, spaces, hyphens, underscores, and periods"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, st := newTestServer(t)

			rec := do(t, srv.Handler(), http.MethodPost, "/api/categories", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, errorOf(t, rec))
			assert.Empty(t, st.GetAll())
		})
	}
}

func TestDeleteCategory(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	h := srv.Handler()

	rec := do(t, h, http.MethodDelete, "/api/categories/services", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Category 'services' deleted", decodeBody(t, rec)["message"])
	assert.Empty(t, st.GetAll())

	rec = do(t, h, http.MethodDelete, "/api/categories/services", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Category 'services' not found", errorOf(t, rec))
}

func TestDeleteCategory_EscapedName(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.CreateCategory("core services")
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodDelete, "/api/categories/core%20services", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, st.GetAll())
}

func TestCreateItem(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.CreateCategory("services")
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/categories/services/items", `{"item_name": "database"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	rec0, ok := body["database"].(map[string]any)
	require.True(t, ok, "body: %s", rec.Body.String())
	assert.Equal(t, "unknown", rec0["status"])
	assert.Equal(t, "", rec0["message"])
	assert.Equal(t, "", rec0["url"])
	assert.NotEmpty(t, rec0["last_updated"])
}

func TestCreateItem_Existing(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	before := st.GetAll()["services"]["database"]

	rec := do(t, srv.Handler(), http.MethodPost, "/api/categories/services/items", `{"item_name": "database"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Item already existed.", body["note"])
	assert.Equal(t, "unknown", body["status"])
	assert.Equal(t, before.LastUpdated.String(), body["last_updated"])
	assert.Equal(t, before, st.GetAll()["services"]["database"])
}

func TestCreateItem_Errors(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.CreateCategory("services")
	require.NoError(t, err)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/categories/missing/items", `{"item_name": "db"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Category 'missing' not found", errorOf(t, rec))

	// category is checked before the name
	rec = do(t, h, http.MethodPost, "/api/categories/missing/items", `{"item_name": ""}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/categories/services/items", `{"item_name": "db!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(errorOf(t, rec), "Invalid item_name: "))

	rec = do(t, h, http.MethodPost, "/api/categories/services/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing item_name", errorOf(t, rec))
}

func TestDeleteItem(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	h := srv.Handler()

	rec := do(t, h, http.MethodDelete, "/api/categories/services/items/database", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Item 'database' deleted from category 'services'", decodeBody(t, rec)["message"])
	assert.Empty(t, st.GetAll()["services"])

	rec = do(t, h, http.MethodDelete, "/api/categories/services/items/database", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item 'database' not found in category 'services'", errorOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/api/categories/missing/items/database", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItem(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")

	rec := do(t, srv.Handler(), http.MethodPut, "/api/categories/services/items/database",
		`{"status": "PASSING", "message": "All good", "url": "https://db.example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := st.GetAll()["services"]["database"]
	assert.Equal(t, "passing", got.Status)
	assert.Equal(t, "All good", got.Message)
	assert.Equal(t, "https://db.example.com", got.URL)

	body := decodeBody(t, rec)
	item, ok := body["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "passing", item["status"])
	assert.Equal(t, got.LastUpdated.String(), item["last_updated"])
}

func TestUpdateItem_PartialAndClear(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	h := srv.Handler()

	rec := do(t, h, http.MethodPut, "/api/categories/services/items/database",
		`{"message": "degraded reads", "url": "https://status.example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/categories/services/items/database", `{"message": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := st.GetAll()["services"]["database"]
	assert.Equal(t, "unknown", got.Status)
	assert.Equal(t, "", got.Message)
	assert.Equal(t, "https://status.example.com", got.URL)
}

func TestUpdateItem_UnsafeURLIgnored(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")

	rec := do(t, srv.Handler(), http.MethodPut, "/api/categories/services/items/database",
		`{"status": "up", "url": "javascript:alert(1)"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got := st.GetAll()["services"]["database"]
	assert.Equal(t, "up", got.Status)
	assert.Equal(t, "", got.URL)
}

func TestUpdateItem_Errors(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	before := st.GetAll()
	h := srv.Handler()

	rec := do(t, h, http.MethodPut, "/api/categories/services/items/database", `{"status": "bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), `"bogus"`)
	assert.Contains(t, errorOf(t, rec), "degraded, down, failing, passing, running, unknown, up")

	rec = do(t, h, http.MethodPut, "/api/categories/services/items/database", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON payload", errorOf(t, rec))

	// a payload with no fields must not touch last_updated
	for _, body := range []string{`{}`, `null`} {
		rec = do(t, h, http.MethodPut, "/api/categories/services/items/database", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.Equal(t, "Invalid JSON payload", errorOf(t, rec), "body %s", body)
	}

	rec = do(t, h, http.MethodPut, "/api/categories/services/items/missing", `{"status": "up"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/categories/missing/items/database", `{"status": "up"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, before, st.GetAll())
}

func TestUpdateItem_VocabularyUnavailable(t *testing.T) {
	vocab := vocabulary.Load(filepath.Join(t.TempDir(), "missing.json"))
	st := store.NewMemoryStore(vocab)
	mustCreateItem(t, st, "services", "database")
	srv := NewServer(Config{Store: st, Vocabulary: vocab, Logger: testLogger()})

	rec := do(t, srv.Handler(), http.MethodPut, "/api/categories/services/items/database", `{"status": "up"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// updates without a status do not need the vocabulary
	rec = do(t, srv.Handler(), http.MethodPut, "/api/categories/services/items/database", `{"message": "hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckpointRestore(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")
	want := st.GetAll()
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/checkpoint", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Health data checkpointed successfully", decodeBody(t, rec)["message"])

	require.NoError(t, st.DeleteCategory("services"))

	rec = do(t, h, http.MethodPost, "/api/restore", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Health data restored successfully", decodeBody(t, rec)["message"])
	assert.Equal(t, want, st.GetAll())
}

func TestRestore_NotFound(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "database")

	rec := do(t, srv.Handler(), http.MethodPost, "/api/restore", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, st.GetAll(), "services")
}

func TestRestore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	st := store.NewMemoryStore(vocabulary.Default())
	srv := NewServer(Config{
		Store:     st,
		Snapshots: snapshot.NewManager(st, snapshot.NewFileStorage(path)),
		Logger:    testLogger(),
	})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/restore", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type errSnapshots struct{ err error }

func (e errSnapshots) Checkpoint(context.Context) error { return e.err }
func (e errSnapshots) Restore(context.Context) error    { return e.err }

func TestCheckpoint_WriteError(t *testing.T) {
	srv := NewServer(Config{
		Store:     store.NewMemoryStore(vocabulary.Default()),
		Snapshots: errSnapshots{err: errors.Join(snapshot.ErrWrite, errors.New("disk full"))},
		Logger:    testLogger(),
	})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/checkpoint", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorOf(t, rec), "disk full")
}

func TestStatusConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/status-config", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var doc vocabulary.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "passing")
	assert.Contains(t, doc, "unknown")
}

func TestStatusConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	missing := vocabulary.Load(filepath.Join(dir, "missing.json"))
	srv := NewServer(Config{Store: store.NewMemoryStore(missing), Vocabulary: missing, Logger: testLogger()})
	rec := do(t, srv.Handler(), http.MethodGet, "/api/status-config", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	corruptPath := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corruptPath, []byte("{nope"), 0o644))
	corrupt := vocabulary.Load(corruptPath)
	srv = NewServer(Config{Store: store.NewMemoryStore(corrupt), Vocabulary: corrupt, Logger: testLogger()})
	rec = do(t, srv.Handler(), http.MethodGet, "/api/status-config", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReloadStatusConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"green": {"color": "#0f0"}}`), 0o644))

	vocab := vocabulary.Load(path)
	st := store.NewMemoryStore(vocab)
	mustCreateItem(t, st, "services", "database")
	srv := NewServer(Config{Store: st, Vocabulary: vocab, Logger: testLogger()})
	h := srv.Handler()

	rec := do(t, h, http.MethodPut, "/api/categories/services/items/database", `{"status": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, os.WriteFile(path, []byte(`{"green": {}, "red": {}}`), 0o644))

	rec = do(t, h, http.MethodPost, "/api/status-config/reload", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeBody(t, rec), "red")

	rec = do(t, h, http.MethodPut, "/api/categories/services/items/database", `{"status": "red"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/health", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

type panicStore struct{ store.Store }

func (panicStore) GetAll() store.Board { panic("boom") }

func TestRecovery(t *testing.T) {
	srv := NewServer(Config{
		Store:  panicStore{Store: store.NewMemoryStore(vocabulary.Default())},
		Logger: testLogger(),
	})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Contains(t, errorOf(t, rec), id)
}
