package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orusmind/orus-builder/internal/auth"
	"github.com/orusmind/orus-builder/internal/gateway"
	"github.com/orusmind/orus-builder/internal/generation"
	"github.com/orusmind/orus-builder/internal/llm"
	"github.com/orusmind/orus-builder/internal/metrics"
	"github.com/orusmind/orus-builder/internal/notify"
	"github.com/orusmind/orus-builder/internal/pipeline"
	"github.com/orusmind/orus-builder/internal/project"
	"github.com/orusmind/orus-builder/internal/store"
	"github.com/orusmind/orus-builder/tests/helpers"
)

// offlineChat stands in for the Groq client so integration tests exercise
// the API surface without a provider key.
type offlineChat struct{}

func (offlineChat) Chat(_ context.Context, _ []llm.Message, _ llm.ChatOptions) (string, error) {
	return "", errors.New("provider disabled in integration tests")
}

func setupRouter(t *testing.T, testDB *helpers.TestDatabase) (*gin.Engine, *auth.JWTManager) {
	t.Helper()

	jwtManager, err := auth.NewJWTManager("test-secret-key-for-integration-tests")
	require.NoError(t, err)

	genMetrics, err := metrics.NewGenerationMetrics()
	require.NoError(t, err)

	handler := gateway.NewHandler(
		pipeline.NewProcessor(zerolog.Nop()),
		generation.NewEngine(offlineChat{}, zerolog.Nop()),
		store.NewResultStore(),
		gateway.NewProgressHub(),
		project.NewService(testDB.Pool),
		notify.NewSystem(zerolog.Nop()),
		notify.NewFeedbackStore(zerolog.Nop()),
		genMetrics,
		jwtManager,
		testDB.Pool,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api")
	api.POST("/auth/login", handler.Login)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager))
	protected.POST("/v1/generation/generate", handler.Generate)
	protected.POST("/dashboard/projects", handler.CreateProject)
	protected.GET("/dashboard/projects", handler.ListProjects)
	protected.GET("/dashboard/projects/:id", handler.GetProject)
	protected.PUT("/dashboard/projects/:id", handler.UpdateProject)
	protected.DELETE("/dashboard/projects/:id", handler.DeleteProject)

	return router, jwtManager
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginIntegration(t *testing.T) {
	testDB := helpers.SkipWithoutDatabase(t)
	defer testDB.Close()

	router, _ := setupRouter(t, testDB)

	email := fmt.Sprintf("login-%d@example.com", time.Now().UnixNano())
	hashed, err := testDB.HashPassword(helpers.DefaultTestUser.Password)
	require.NoError(t, err)
	testDB.CreateTestUser(t, email, hashed)

	t.Run("valid credentials return token", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/auth/login", "",
			helpers.CreateTestLoginRequest(email, helpers.DefaultTestUser.Password))
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["token"])

		user := resp["user"].(map[string]interface{})
		assert.Equal(t, email, user["email"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/auth/login", "",
			helpers.CreateTestLoginRequest(email, "wrong-password"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/auth/login", "",
			helpers.CreateTestLoginRequest("nobody@example.com", "whatever"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	testDB := helpers.SkipWithoutDatabase(t)
	defer testDB.Close()

	router, _ := setupRouter(t, testDB)

	w := doRequest(router, http.MethodGet, "/api/dashboard/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/dashboard/projects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectCRUDIntegration(t *testing.T) {
	testDB := helpers.SkipWithoutDatabase(t)
	defer testDB.Close()

	router, jwtManager := setupRouter(t, testDB)

	email := fmt.Sprintf("projects-%d@example.com", time.Now().UnixNano())
	userID := testDB.CreateTestUser(t, email, "unused-hash")
	token, err := jwtManager.GenerateToken(context.Background(), userID, email, []string{"user"}, time.Hour)
	require.NoError(t, err)

	var projectID string

	t.Run("create", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/dashboard/projects", token,
			helpers.CreateTestProjectRequest("Test Shop", "integration test project"))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		projectID, _ = resp["id"].(string)
		require.NotEmpty(t, projectID)
		assert.Equal(t, "Test Shop", resp["name"])
	})

	t.Run("list contains created project", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/dashboard/projects", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.NotEmpty(t, list)

		found := false
		for _, p := range list {
			if p["id"] == projectID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("get", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/dashboard/projects/"+projectID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, projectID, resp["id"])
	})

	t.Run("update", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/api/dashboard/projects/"+projectID, token,
			helpers.CreateTestProjectRequest("Renamed Shop", "updated description"))
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Renamed Shop", resp["name"])
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(router, http.MethodDelete, "/api/dashboard/projects/"+projectID, token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(router, http.MethodGet, "/api/dashboard/projects/"+projectID, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGenerateIntegration(t *testing.T) {
	testDB := helpers.SkipWithoutDatabase(t)
	defer testDB.Close()

	router, jwtManager := setupRouter(t, testDB)

	email := fmt.Sprintf("generate-%d@example.com", time.Now().UnixNano())
	userID := testDB.CreateTestUser(t, email, "unused-hash")
	token, err := jwtManager.GenerateToken(context.Background(), userID, email, []string{"user"}, time.Hour)
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/api/v1/generation/generate", token,
		helpers.CreateTestGenerateRequest(helpers.DefaultTestProject.Prompt, "react"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["jobId"])
	assert.NotEmpty(t, resp["components"])
}
