package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orusmind/orus-builder/internal/auth"
	"github.com/orusmind/orus-builder/internal/generation"
	"github.com/orusmind/orus-builder/internal/llm"
	"github.com/orusmind/orus-builder/internal/metrics"
	"github.com/orusmind/orus-builder/internal/models"
	"github.com/orusmind/orus-builder/internal/notify"
	"github.com/orusmind/orus-builder/internal/pipeline"
	"github.com/orusmind/orus-builder/internal/spec"
	"github.com/orusmind/orus-builder/internal/store"
)

const testUserID = "11111111-2222-3333-4444-555555555555"

// unavailableChat simulates a dead provider; the engine falls back to the
// deterministic scaffold for every request.
type unavailableChat struct{}

func (unavailableChat) Chat(_ context.Context, _ []llm.Message, _ llm.ChatOptions) (string, error) {
	return "", errors.New("provider unavailable")
}

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	genMetrics, err := metrics.NewGenerationMetrics()
	require.NoError(t, err)

	h := NewHandler(
		pipeline.NewProcessor(zerolog.Nop()),
		generation.NewEngine(unavailableChat{}, zerolog.Nop()),
		store.NewResultStore(),
		NewProgressHub(),
		nil, // project service needs a database; project routes are not under test
		notify.NewSystem(zerolog.Nop()),
		notify.NewFeedbackStore(zerolog.Nop()),
		genMetrics,
		nil,
		nil,
	)

	r := gin.New()
	authed := r.Group("/api", func(c *gin.Context) {
		c.Set(auth.UserIDKey, testUserID)
	})
	authed.POST("/v1/generation/generate", h.Generate)
	authed.GET("/v1/generation/:jobId/result", h.GetResult)
	authed.GET("/v1/generation/download/:id", h.Download)
	authed.GET("/notifications", h.ListNotifications)
	authed.POST("/notifications/:id/read", h.MarkNotificationRead)
	authed.GET("/notifications/preferences", h.GetNotificationPreferences)
	authed.PUT("/notifications/preferences", h.SetNotificationPreferences)
	authed.POST("/feedback", h.SubmitFeedback)
	authed.GET("/feedback/summary", h.GetFeedbackSummary)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerate_InvalidBody(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/generation/generate", map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, models.ErrCodeInvalidRequest, resp.Error.Code)
}

func TestGenerate_LocalizedErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/generation/generate",
		map[string]string{}, map[string]string{"Accept-Language": "pt-BR,pt;q=0.9"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "O corpo da requisição é inválido.", resp.Error.Message)
}

func TestGenerate_PipelineFailureIsLocalizedWithDetails(t *testing.T) {
	r, _ := newTestRouter(t)

	// Whitespace passes request binding but fails the parse stage.
	w := doJSON(t, r, http.MethodPost, "/api/v1/generation/generate",
		models.GenerateRequest{Prompt: "   "}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "The prompt failed validation.", resp.Error.Message)
	require.NotEmpty(t, resp.Error.Details)
	assert.Contains(t, resp.Error.Details["error"], "prompt is empty")
}

func TestGenerate_VaguePromptAsksForClarification(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/generation/generate",
		models.GenerateRequest{Prompt: "something nice"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp models.ClarificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.False(t, resp.Ready)
	assert.NotEmpty(t, resp.Questions)
	assert.Contains(t, strings.Join(resp.Questions, " "), "What kind of application")
}

func TestGenerate_FullFlow(t *testing.T) {
	r, h := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/generation/generate",
		models.GenerateRequest{Prompt: "Build an ecommerce store with cart and checkout", Framework: "react"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Ready)
	require.NotEmpty(t, resp.JobID)
	require.NotEmpty(t, resp.Components)
	assert.Len(t, resp.Trace, 8)

	// provider is down, so the scaffold fallback is the only component
	assert.Equal(t, "App", resp.Components[0].Name)

	t.Run("result is stored", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/generation/"+resp.JobID+"/result", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var result spec.GenerationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, resp.JobID, result.RequestID)
	})

	t.Run("download packages a zip", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/generation/download/"+resp.JobID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), resp.JobID)
		// ZIP local file header magic
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("completion notification was recorded", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/notifications", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []notify.Notification
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.NotEmpty(t, list)
		assert.Equal(t, "Generation finished", list[0].Title)

		wr := doJSON(t, r, http.MethodPost, "/api/notifications/"+list[0].ID+"/read", nil, nil)
		assert.Equal(t, http.StatusNoContent, wr.Code)
	})

	t.Run("progress was buffered for late stream subscribers", func(t *testing.T) {
		replay, live, cancel, known := h.hub.Subscribe(resp.JobID)
		defer cancel()
		require.True(t, known)
		assert.Nil(t, live)
		require.NotEmpty(t, replay)
		assert.Equal(t, "analyze", replay[0].Stage)
		assert.Equal(t, "done", replay[len(replay)-1].Stage)
	})
}

func TestGetResult_UnknownJob(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/generation/missing/result", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeNotFound, resp.Error.Code)
}

func TestDownload_UnknownJob(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/generation/download/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationPreferencesRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/notifications/preferences", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var prefs notify.Preferences
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, testUserID, prefs.UserID)
	assert.Equal(t, []notify.Channel{notify.ChannelInApp}, prefs.Channels)

	w = doJSON(t, r, http.MethodPut, "/api/notifications/preferences",
		notify.Preferences{Channels: []notify.Channel{notify.ChannelEmail}, Muted: true}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, testUserID, prefs.UserID)
	assert.True(t, prefs.Muted)

	w = doJSON(t, r, http.MethodGet, "/api/notifications/preferences", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, []notify.Channel{notify.ChannelEmail}, prefs.Channels)
}

func TestFeedbackRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("missing rating is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/feedback",
			map[string]string{"jobId": "job-1"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := doJSON(t, r, http.MethodPost, "/api/feedback",
		models.FeedbackRequest{JobID: "job-1", Rating: 5, Comment: "great output"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var f notify.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	assert.Equal(t, testUserID, f.UserID)
	assert.Equal(t, "positive", f.Sentiment)

	w = doJSON(t, r, http.MethodGet, "/api/feedback/summary", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary notify.FeedbackSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 1, summary.Positive)
}
