//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/jsamuelsen/taxonomy-service/internal/adapters/http"
	"github.com/jsamuelsen/taxonomy-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/taxonomy-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/taxonomy-service/internal/app"
	"github.com/jsamuelsen/taxonomy-service/internal/platform/config"
	"github.com/jsamuelsen/taxonomy-service/internal/ports"
)

// startTestServer boots the full HTTP stack - router, middleware, handlers -
// against an in-memory store and returns its base URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	service := app.NewTaxonomyService(app.TaxonomyServiceConfig{
		Vocabularies: store.Vocabularies(),
		Terms:        store.Terms(),
		Logger:       logger,
	})

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(store))

	buildInfo := handlers.NewBuildInfo("integration", "none", "none")

	engine := gin.New()
	apihttp.SetupRouter(engine, apihttp.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "taxonomy-service", Version: "integration", Environment: "test"},
		handlers.NewHealthHandler(registry, buildInfo),
		handlers.NewVocabularyHandler(service),
		handlers.NewTermHandler(service),
	))

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return server.URL
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp
}

// TestAPI_HealthEndpoints verifies the probe endpoints respond through the
// full middleware chain with the storage check registered.
func TestAPI_HealthEndpoints(t *testing.T) {
	baseURL := startTestServer(t)

	for _, path := range []string{"/-/live", "/-/ready", "/-/build"} {
		t.Run(path, func(t *testing.T) {
			resp := getJSON(t, baseURL+path, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

// TestAPI_VocabularyLifecycle exercises create, list, options and delete
// through real HTTP round trips.
func TestAPI_VocabularyLifecycle(t *testing.T) {
	baseURL := startTestServer(t)

	resp := postJSON(t, baseURL+"/api/v1/vocabularies", `{"name":"Colors"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, baseURL+"/api/v1/vocabularies/Colors/terms", `{"name":"Warm","weight":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var warm struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&warm))

	resp = postJSON(t, baseURL+"/api/v1/vocabularies/Colors/terms",
		`{"name":"Red","parentId":`+jsonInt(warm.ID)+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var options []struct {
		Label string `json:"label"`
	}
	resp = getJSON(t, baseURL+"/api/v1/vocabularies/Colors/options", &options)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, options, 2)
	assert.Equal(t, "Warm", options[0].Label)
	assert.Equal(t, "- Red", options[1].Label)

	req, err := http.NewRequest(http.MethodDelete, baseURL+"/api/v1/vocabularies/Colors", nil)
	require.NoError(t, err)

	deleteResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer deleteResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, deleteResp.StatusCode)

	// Terms are gone with the vocabulary
	var names map[int64]string
	resp = getJSON(t, baseURL+"/api/v1/vocabularies/Colors/terms/names", &names)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, names)
}

// TestAPI_ErrorEnvelope verifies error responses carry the standard envelope
// through the full stack.
func TestAPI_ErrorEnvelope(t *testing.T) {
	baseURL := startTestServer(t)

	resp := postJSON(t, baseURL+"/api/v1/vocabularies", `{"name":"Dup"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, baseURL+"/api/v1/vocabularies", `{"name":"Dup"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
	assert.NotEmpty(t, envelope.Error.Message)
}

// TestAPI_RequestIDPropagation verifies the middleware chain echoes request
// IDs back to the caller.
func TestAPI_RequestIDPropagation(t *testing.T) {
	baseURL := startTestServer(t)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/vocabularies", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "integration-req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "integration-req-42", resp.Header.Get("X-Request-ID"))
}

// TestAPI_TermRootWalk verifies the upward root walk endpoint end to end.
func TestAPI_TermRootWalk(t *testing.T) {
	baseURL := startTestServer(t)

	resp := postJSON(t, baseURL+"/api/v1/vocabularies", `{"name":"Tree"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, baseURL+"/api/v1/vocabularies/Tree/terms", `{"name":"Trunk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var trunk struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trunk))

	resp = postJSON(t, baseURL+"/api/v1/vocabularies/Tree/terms",
		`{"name":"Branch","parentId":`+jsonInt(trunk.ID)+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var branch struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&branch))

	var root struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	getResp := getJSON(t, baseURL+"/api/v1/terms/"+jsonInt(branch.ID)+"/root", &root)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, trunk.ID, root.ID)
	assert.Equal(t, "Trunk", root.Name)
}

func jsonInt(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}
