package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/testutils"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	src := memory.NewSource(map[string]ports.GraphDocument{"intro": testutils.SampleDocument()})
	mgr := session.NewManager(src, store, session.WithMetrics(metrics))
	h := latticehttp.NewHandler(mgr, latticehttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return h, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestServer_ReadEndpoints(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodGet, "/docs/intro/states", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Start", body["init_state_name"])
	assert.EqualValues(t, 0, body["version"])
	assert.Len(t, body["states"], 2)

	w = do(t, h, http.MethodGet, "/docs/intro/states/Middle", "")
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)
	assert.Equal(t, "NumericInput", state["interaction"].(map[string]any)["id"])

	w = do(t, h, http.MethodGet, "/docs/intro/states/Middle/warnings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["warnings"], 1)

	w = do(t, h, http.MethodGet, "/docs/intro/states/Start/warnings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["warnings"])

	w = do(t, h, http.MethodGet, "/docs/intro/graph?current=Start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class Middle flagged;")
	assert.Contains(t, w.Body.String(), "class Start current;")
}

func TestServer_NotFound(t *testing.T) {
	h, _ := newServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/docs/missing/states", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/docs/intro/states/Nowhere", "").Code)
}

func TestServer_EditUndoRedo(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"add_state","state_name":"Extra"},{"cmd":"rename_state","old_state_name":"Extra","new_state_name":"Bonus"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["has_unsaved_changes"])
	assert.Len(t, body["change_list"], 2)
	assert.Equal(t, []any{"Bonus"}, body["diff"].(map[string]any)["added"])

	w = do(t, h, http.MethodPost, "/docs/intro/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["change_list"], 1)

	w = do(t, h, http.MethodPost, "/docs/intro/redo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["change_list"], 2)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/docs/intro/redo", "").Code)
}

func TestServer_ChangesAreAtomic(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"add_state","state_name":"Extra"},{"cmd":"add_state","state_name":"Start"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodGet, "/docs/intro/changes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["change_list"])

	w = do(t, h, http.MethodPost, "/docs/intro/changes", `{"change_list":[{"cmd":"explode"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/docs/intro/changes", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Commit(t *testing.T) {
	h, store := newServer(t)

	w := do(t, h, http.MethodPost, "/docs/intro/commit", `{"version":0,"commit_message":"empty"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "nothing to commit")

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"add_state","state_name":"Extra"}]}`).Code)

	w = do(t, h, http.MethodPost, "/docs/intro/commit", `{"commit_message":"no version"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/docs/intro/commit", `{"version":0,"commit_message":"add extra"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	commit := decode(t, w)
	assert.EqualValues(t, 1, commit["version"])
	assert.Equal(t, "add extra", commit["message"])
	assert.NotEmpty(t, commit["id"])

	commits, err := store.Load(t.Context(), "intro")
	require.NoError(t, err)
	require.Len(t, commits, 1)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"delete_state","state_name":"Extra"}]}`).Code)
	w = do(t, h, http.MethodPost, "/docs/intro/commit", `{"version":0,"commit_message":"stale"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w)["error"], "too old")

	w = do(t, h, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"intro"}, decode(t, w)["docs"])
}

func TestServer_ValidationErrorsAreUnprocessable(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodPost, "/docs/intro/changes", `{"change_list":[{
		"cmd":"edit_state_property","state_name":"Start","property_name":"default_outcome",
		"new_value":{"dest":"Nowhere","feedback":{"html":"","audio_translations":{}},"param_changes":[]}}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["error"], "Nowhere")

	w = do(t, h, http.MethodGet, "/docs/intro/changes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["change_list"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"delete_state","state_name":"Nowhere"}]}`).Code)
}

func TestServer_Interactions(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, http.MethodGet, "/interactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Interactions []registry.Interaction `json:"interactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	ids := make([]string, 0, len(body.Interactions))
	for _, spec := range body.Interactions {
		ids = append(ids, spec.ID)
	}
	assert.Equal(t, registry.Default().IDs(), ids)

	custom := registry.NewRegistry()
	require.NoError(t, custom.Load(strings.NewReader(`[{"id":"Slider","rules":{"Equals":{"x":"number"}}}]`)))
	src := memory.NewSource(map[string]ports.GraphDocument{})
	h = latticehttp.NewHandler(session.NewManager(src, memory.NewStore()), latticehttp.WithRegistry(custom))
	w = do(t, h, http.MethodGet, "/interactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"interactions":[{"id":"Slider","rules":{"Equals":{"x":"number"}}}]}`, w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	h, _ := newServer(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/docs/intro/changes",
		`{"change_list":[{"cmd":"add_state","state_name":"Extra"}]}`).Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lattice_commands_total"))
}

func TestServer_CORS(t *testing.T) {
	h, _ := newServer(t)
	w := do(t, h, http.MethodOptions, "/docs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
