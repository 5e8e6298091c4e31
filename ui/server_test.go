package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crminsight/app"
	internaldataset "crminsight/internal/dataset"
	"crminsight/internal/session"
	"crminsight/internal/training"
)

const churnCSV = "customer_id,age,plan_type,churn\nc1,34,basic,0\nc2,51,pro,1\nc3,29,basic,0\nc4,62,pro,1\n"

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	pipeline := app.NewPipelineService(internaldataset.NewParser(), training.NewTrainer(), nil)
	return NewServer(pipeline, session.New(), Options{
		MaxUploadBytes:   1 << 20,
		DefaultTarget:    "churn",
		DefaultIDColumn:  "customer_id",
		DefaultThreshold: 0.5,
	})
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServer_FullFlow(t *testing.T) {
	s := newTestServer()

	w, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])

	w, body = do(t, s, uploadRequest(t, "customers.csv", churnCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4.0, body["rows"])
	assert.Len(t, body["columns"], 4)

	w, body = do(t, s, jsonRequest(http.MethodPost, "/train", `{"target":"churn","id_column":"customer_id"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4.0, body["n_rows"])
	assert.Equal(t, 2.0, body["n_features"])
	assert.NotNil(t, body["auc"])

	w, body = do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.5, body["churn_rate"])
	assert.Len(t, body["top_features"], 3)

	w, body = do(t, s, jsonRequest(http.MethodPost, "/score", `{"threshold":0.7}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.7, body["threshold"])
	scores := body["scores"].([]interface{})
	require.Len(t, scores, 4)
	first := scores[0].(map[string]interface{})
	assert.Equal(t, "c1", first["customer_id"])
	assert.Contains(t, first, "prob")
	assert.Contains(t, first, "recommendation")

	w, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h2")
	assert.Contains(t, w.Body.String(), "Top features")

	w, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/report?format=md", nil))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Churn model report"))
}

func TestServer_TrainUsesDefaults(t *testing.T) {
	s := newTestServer()
	w, _ := do(t, s, uploadRequest(t, "customers.csv", churnCSV))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, s, httptest.NewRequest(http.MethodPost, "/train", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2.0, body["n_features"])
}

func TestServer_ErrorMapping(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		req  func() *http.Request
		code int
		kind string
	}{
		{"metrics before train", func() *http.Request { return httptest.NewRequest(http.MethodGet, "/metrics", nil) }, http.StatusBadRequest, "StateError"},
		{"score before train", func() *http.Request { return jsonRequest(http.MethodPost, "/score", `{}`) }, http.StatusBadRequest, "StateError"},
		{"header-only upload", func() *http.Request { return uploadRequest(t, "empty.csv", "a,b\n") }, http.StatusBadRequest, "FormatError"},
		{"unsupported extension", func() *http.Request { return uploadRequest(t, "data.txt", churnCSV) }, http.StatusBadRequest, "FormatError"},
		{"missing file field", func() *http.Request { return httptest.NewRequest(http.MethodPost, "/upload", nil) }, http.StatusBadRequest, ""},
		{"bad threshold", func() *http.Request { return jsonRequest(http.MethodPost, "/score", `{"threshold":2}`) }, http.StatusBadRequest, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w, body := do(t, s, test.req())
			assert.Equal(t, test.code, w.Code)
			assert.Equal(t, false, body["ok"])
			if test.kind != "" {
				assert.Equal(t, test.kind, body["kind"])
			}
		})
	}
}

func TestServer_TrainMissingTarget(t *testing.T) {
	s := newTestServer()
	w, _ := do(t, s, uploadRequest(t, "customers.csv", churnCSV))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, s, jsonRequest(http.MethodPost, "/train", `{"target":"cancelled"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SchemaError", body["kind"])
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer()
	w, _ := do(t, s, httptest.NewRequest(http.MethodOptions, "/train", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Runs(t *testing.T) {
	s := newTestServer()
	w, body := do(t, s, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["runs"])

	w, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/runs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpsRouter(t *testing.T) {
	w := httptest.NewRecorder()
	NewOpsRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	NewOpsRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
}
