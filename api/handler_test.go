package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cmdhub/config"
	"cmdhub/db"
	"cmdhub/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	store  *db.Store
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := db.Open(config.Config{
		DBDriver:       config.DriverSQLite,
		DBPath:         filepath.Join(t.TempDir(), "commands.db"),
		DBLogLevel:     "silent",
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return &testServer{t: t, store: store, router: NewRouter(store)}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(c model.Command) model.Command {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/commands", c)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Command](s.t, w)
}

func (s *testServer) count() int {
	s.t.Helper()
	commands, err := s.store.List(context.Background())
	require.NoError(s.t, err)
	return len(commands)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

var doX = model.Command{HowTo: "Do X", Platform: "Linux", CommandLine: "ls"}

func TestListEmptyStore(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/commands", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListReturnsEveryRecord(t *testing.T) {
	s := newTestServer(t)
	a := s.create(doX)
	b := s.create(model.Command{HowTo: "Show disk usage", Platform: "Linux", CommandLine: "df -h"})

	w := s.do(http.MethodGet, "/api/commands", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []model.Command{a, b}, decode[[]model.Command](t, w))
}

func TestCreateThenGet(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/commands", doX)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.Command](t, w)
	assert.Positive(t, created.ID)
	assert.Equal(t, CommandPath(created.ID), w.Header().Get("Location"))

	w = s.do(http.MethodGet, CommandPath(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Command](t, w)
	assert.Equal(t, doX.HowTo, got.HowTo)
	assert.Equal(t, doX.Platform, got.Platform)
	assert.Equal(t, doX.CommandLine, got.CommandLine)
}

func TestCreateUsesCamelCaseJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/commands", `{"howTo":"Do X","platform":"Linux","commandLine":"ls"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"howTo":"Do X","platform":"Linux","commandLine":"ls"}`, w.Body.String())
}

func TestCreateIgnoresSuppliedID(t *testing.T) {
	s := newTestServer(t)
	first := s.create(doX)

	c := doX
	c.ID = first.ID
	second := s.create(c)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, s.count())
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing howTo", model.Command{Platform: "Linux", CommandLine: "ls"}},
		{"blank platform", model.Command{HowTo: "Do X", Platform: " ", CommandLine: "ls"}},
		{"commandLine too long", model.Command{HowTo: "Do X", Platform: "Linux", CommandLine: strings.Repeat("x", 251)}},
		{"malformed json", `{"howTo":`},
		{"empty body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.do(http.MethodPost, "/api/commands", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 0, s.count())
		})
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/commands/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/commands/abc", nil).Code)
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t)
	created := s.create(doX)

	changed := model.Command{ID: created.ID, HowTo: "Do Y", Platform: "Windows", CommandLine: "dir"}
	w := s.do(http.MethodPut, CommandPath(created.ID), changed)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	got, err := s.store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, changed, got)
}

func TestUpdateMismatchedIDLeavesStoreUnchanged(t *testing.T) {
	s := newTestServer(t)
	created := s.create(doX)

	w := s.do(http.MethodPut, CommandPath(created.ID),
		model.Command{ID: created.ID + 1, HowTo: "Do Y", Platform: "Windows", CommandLine: "dir"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	commands, err := s.store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Command{created}, commands)
}

func TestUpdateMissingRecord(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/commands/5",
		model.Command{ID: 5, HowTo: "Do Y", Platform: "Windows", CommandLine: "dir"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, s.count())
}

func TestUpdateRejectsInvalidPayload(t *testing.T) {
	s := newTestServer(t)
	created := s.create(doX)

	w := s.do(http.MethodPut, CommandPath(created.ID),
		model.Command{ID: created.ID, HowTo: "", Platform: "Linux", CommandLine: "ls"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	got, err := s.store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	created := s.create(doX)
	s.create(model.Command{HowTo: "Other", Platform: "Linux", CommandLine: "pwd"})

	w := s.do(http.MethodDelete, CommandPath(created.ID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[model.Command](t, w))
	assert.Equal(t, 1, s.count())
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, CommandPath(created.ID), nil).Code)
}

func TestDeleteMissing(t *testing.T) {
	s := newTestServer(t)
	s.create(doX)

	w := s.do(http.MethodDelete, "/api/commands/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, s.count())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/commands", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/commands", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodOptions, "/api/commands", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

type failingStore struct{ err error }

func (f failingStore) List(context.Context) ([]model.Command, error) { return nil, f.err }
func (f failingStore) Get(context.Context, int64) (model.Command, error) {
	return model.Command{}, f.err
}
func (f failingStore) Create(context.Context, model.Command) (model.Command, error) {
	return model.Command{}, f.err
}
func (f failingStore) Update(context.Context, model.Command) error { return f.err }
func (f failingStore) Delete(context.Context, int64) (model.Command, error) {
	return model.Command{}, f.err
}
func (f failingStore) Ping(context.Context) error { return f.err }

func TestStoreFailures(t *testing.T) {
	r := NewRouter(failingStore{err: errors.New("connection refused")})

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/commands", "", http.StatusInternalServerError},
		{http.MethodGet, "/api/commands/1", "", http.StatusInternalServerError},
		{http.MethodPost, "/api/commands", `{"howTo":"a","platform":"b","commandLine":"c"}`, http.StatusInternalServerError},
		{http.MethodPut, "/api/commands/1", `{"id":1,"howTo":"a","platform":"b","commandLine":"c"}`, http.StatusInternalServerError},
		{http.MethodDelete, "/api/commands/1", "", http.StatusInternalServerError},
		{http.MethodGet, "/healthz", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestConstraintErrorIsBadRequest(t *testing.T) {
	r := NewRouter(failingStore{err: db.ErrConstraint})

	req := httptest.NewRequest(http.MethodPost, "/api/commands",
		strings.NewReader(`{"howTo":"a","platform":"b","commandLine":"c"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListHidesStoreError(t *testing.T) {
	r := NewRouter(failingStore{err: errors.New("dial tcp 10.0.0.5:5432: password authentication failed for user admin")})

	req := httptest.NewRequest(http.MethodGet, "/api/commands", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
