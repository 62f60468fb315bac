// Package gateway holds the HTTP and WebSocket surface of the builder API.
package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/orusmind/orus-builder/internal/archive"
	"github.com/orusmind/orus-builder/internal/auth"
	"github.com/orusmind/orus-builder/internal/generation"
	"github.com/orusmind/orus-builder/internal/i18n"
	"github.com/orusmind/orus-builder/internal/metrics"
	"github.com/orusmind/orus-builder/internal/models"
	"github.com/orusmind/orus-builder/internal/notify"
	"github.com/orusmind/orus-builder/internal/pipeline"
	"github.com/orusmind/orus-builder/internal/project"
	"github.com/orusmind/orus-builder/internal/spec"
	"github.com/orusmind/orus-builder/internal/store"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	processor     *pipeline.Processor
	engine        *generation.Engine
	results       *store.ResultStore
	hub           *ProgressHub
	projects      *project.Service
	notifications *notify.System
	feedback      *notify.FeedbackStore
	metrics       *metrics.GenerationMetrics
	jwtManager    *auth.JWTManager
	pool          *pgxpool.Pool
}

// NewHandler creates a new gateway handler
func NewHandler(
	processor *pipeline.Processor,
	engine *generation.Engine,
	results *store.ResultStore,
	hub *ProgressHub,
	projects *project.Service,
	notifications *notify.System,
	feedback *notify.FeedbackStore,
	genMetrics *metrics.GenerationMetrics,
	jwtManager *auth.JWTManager,
	pool *pgxpool.Pool,
) *Handler {
	return &Handler{
		processor:     processor,
		engine:        engine,
		results:       results,
		hub:           hub,
		projects:      projects,
		notifications: notifications,
		feedback:      feedback,
		metrics:       genMetrics,
		jwtManager:    jwtManager,
		pool:          pool,
	}
}

func locale(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}

func errNotFound(c *gin.Context) models.ErrorResponse {
	return models.NewErrorResponse(models.ErrCodeNotFound,
		i18n.Localize(locale(c), i18n.KeyNotFound), nil)
}

// errDetails embeds the original error in the envelope's details map so the
// localized message never swallows the diagnostic.
func errDetails(err error) map[string]string {
	if err == nil {
		return nil
	}
	return map[string]string{"error": err.Error()}
}

func (h *Handler) respondError(c *gin.Context, status int, body models.ErrorResponse) {
	c.JSON(status, body)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	// Lookup user in database
	var user models.User
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, name, email, hashed_password, locale, created_at FROM users WHERE email = $1`,
		req.Email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.Locale, &user.CreatedAt)

	if err != nil {
		log.Warn().Str("email", req.Email).Msg("user not found")
		h.respondError(c, http.StatusUnauthorized, models.NewErrorResponse(
			models.ErrCodeUnauthorized, i18n.Localize(locale(c), i18n.KeyUnauthorized), nil))
		return
	}

	// Verify password using bcrypt
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		log.Warn().Str("email", req.Email).Msg("invalid password")
		h.respondError(c, http.StatusUnauthorized, models.NewErrorResponse(
			models.ErrCodeUnauthorized, i18n.Localize(locale(c), i18n.KeyUnauthorized), nil))
		return
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		user.ID,
		user.Email,
		[]string{"user"},
		24*time.Hour,
	)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToUserInfo(),
	})
}

// Generate godoc
// @Summary Generate an application from a prompt
// @Description Run the prompt pipeline and, when the prompt is ready, the full code generation flow. Returns the generated components synchronously.
// @Tags generation
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "Generation request"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ClarificationResponse
// @Security BearerAuth
// @Router /v1/generation/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	userID, _ := c.Get(auth.UserIDKey)
	userIDStr, _ := userID.(string)

	opts := spec.GenerationOptions{}
	if req.Options != nil {
		opts = *req.Options
	}
	if opts.Framework == "" {
		opts.Framework = req.Framework
	}

	jobID := uuid.New().String()
	started := time.Now()
	h.metrics.RecordJobStarted(c.Request.Context(), jobID, opts.Framework)

	// Prompt pipeline runs first. A prompt that is not ready never reaches
	// the generation engine.
	pres, err := h.processor.Process(c.Request.Context(), req.Prompt, pipeline.Options{
		SkipValidation:   opts.SkipValidation,
		SkipAmbiguity:    opts.SkipAmbiguity,
		SkipConversation: opts.SkipHistory,
		SessionID:        userIDStr,
	})
	if err != nil {
		h.metrics.RecordJobFailed(c.Request.Context(), jobID, opts.Framework,
			"pipeline_error", time.Since(started))
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeValidationFailed,
			i18n.Localize(locale(c), i18n.KeyValidationFailed), errDetails(err)))
		return
	}

	if !pres.Ready {
		h.metrics.RecordJobFailed(c.Request.Context(), jobID, opts.Framework,
			"prompt_not_ready", time.Since(started))
		c.JSON(http.StatusUnprocessableEntity, models.ClarificationResponse{
			Success:   false,
			Ready:     false,
			Questions: clarificationQuestions(pres),
			Trace:     pres.Trace,
		})
		return
	}

	genReq := &spec.GenerationRequest{
		RequestID: jobID,
		UserID:    userIDStr,
		ProjectID: req.ProjectID,
		Prompt:    req.Prompt,
		Framework: opts.Framework,
		Context:   generationContext(&req, pres),
		Options:   opts,
	}

	h.hub.Open(jobID)

	result := h.engine.Generate(c.Request.Context(), genReq, func(ev generation.ProgressEvent) {
		h.hub.Publish(jobID, ev)
	})
	h.hub.Close(jobID)
	h.results.Put(jobID, result)

	// Generate never fails outright: the engine substitutes fallbacks, so
	// every result that reaches this point counts as a completed job.
	h.metrics.RecordJobCompleted(c.Request.Context(), jobID, genReq.Framework,
		len(result.Components), time.Since(started))

	if req.ProjectID != "" {
		if projectID, perr := uuid.Parse(req.ProjectID); perr == nil {
			if err := h.projects.AttachGeneration(c.Request.Context(), projectID, jobID,
				result.QualityScore, result.Specification); err != nil {
				log.Warn().Err(err).Str("project_id", req.ProjectID).Msg("failed to attach generation to project")
			}
		}
	}

	if userIDStr != "" {
		h.notifications.Notify(userIDStr, "Generation finished",
			fmt.Sprintf("Job %s produced %d components", jobID, len(result.Components)))
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		Success:      result.Success,
		JobID:        jobID,
		Ready:        true,
		QualityScore: result.QualityScore,
		Components:   result.Components,
		Summary:      result.Summary,
		Trace:        pres.Trace,
		CreatedAt:    result.CreatedAt,
	})
}

// clarificationQuestions turns pipeline findings into user-facing questions.
func clarificationQuestions(res *pipeline.Result) []string {
	var questions []string
	if res.Intent.Domain == "" {
		questions = append(questions, "What kind of application is this? (e.g. e-commerce, dashboard, blog)")
	}
	for _, term := range res.Ambiguity.VagueTerms {
		questions = append(questions, fmt.Sprintf("Can you be more specific about %q?", term))
	}
	if len(res.Requirements) == 0 {
		questions = append(questions, "Which features should the application have?")
	}
	if len(questions) == 0 {
		questions = append(questions, "Can you describe the application in more detail?")
	}
	return questions
}

// generationContext prefers the caller-supplied context and fills the gaps
// from pipeline analysis.
func generationContext(req *models.GenerateRequest, res *pipeline.Result) *spec.GenerationContext {
	ctx := &spec.GenerationContext{}
	if req.Context != nil {
		*ctx = *req.Context
	}
	if ctx.Domain == "" {
		ctx.Domain = res.Intent.Domain
	}
	if ctx.Style == "" {
		ctx.Style = res.Context.Style
	}
	if len(ctx.ColorPalette) == 0 {
		ctx.ColorPalette = res.Context.Palette
	}
	return ctx
}

// GetResult godoc
// @Summary Get generation result
// @Description Return the stored result of a generation job
// @Tags generation
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} spec.GenerationResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /v1/generation/{jobId}/result [get]
func (h *Handler) GetResult(c *gin.Context) {
	jobID := c.Param("jobId")
	result, ok := h.results.Get(jobID)
	if !ok {
		h.respondError(c, http.StatusNotFound, errNotFound(c))
		return
	}
	c.JSON(http.StatusOK, result)
}

// Download godoc
// @Summary Download generated project
// @Description Package the generated components of a job as a ZIP archive
// @Tags generation
// @Produce application/zip
// @Param id path string true "Job ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /v1/generation/download/{id} [get]
func (h *Handler) Download(c *gin.Context) {
	jobID := c.Param("id")
	result, ok := h.results.Get(jobID)
	if !ok {
		h.respondError(c, http.StatusNotFound, errNotFound(c))
		return
	}

	data, err := archive.BuildZip(result)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to build archive")
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="project-%s.zip"`, jobID))
	c.Data(http.StatusOK, "application/zip", data)
}

// CreateProject godoc
// @Summary Create project
// @Description Create a new dashboard project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body models.ProjectRequest true "Project details"
// @Success 201 {object} project.Project
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	userID, ok := h.authedUserID(c)
	if !ok {
		return
	}

	projectID, err := h.projects.Create(c.Request.Context(), req.Name, req.Description, req.Prompt, req.Framework, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create project")
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	p, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListProjects godoc
// @Summary List projects
// @Description List the authenticated user's projects
// @Tags projects
// @Produce json
// @Success 200 {array} project.Project
// @Security BearerAuth
// @Router /dashboard/projects [get]
func (h *Handler) ListProjects(c *gin.Context) {
	userID, ok := h.authedUserID(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list projects")
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	if projects == nil {
		projects = []project.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject godoc
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} project.Project
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	p, err := h.projects.Get(c.Request.Context(), projectID)
	if err == project.ErrNotFound {
		h.respondError(c, http.StatusNotFound, errNotFound(c))
		return
	}
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProject godoc
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body models.ProjectRequest true "Project details"
// @Success 200 {object} project.Project
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/projects/{id} [put]
func (h *Handler) UpdateProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	err = h.projects.Update(c.Request.Context(), projectID, req.Name, req.Description)
	if err == project.ErrNotFound {
		h.respondError(c, http.StatusNotFound, errNotFound(c))
		return
	}
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	p, _ := h.projects.Get(c.Request.Context(), projectID)
	c.JSON(http.StatusOK, p)
}

// DeleteProject godoc
// @Summary Delete project
// @Tags projects
// @Param id path string true "Project ID"
// @Success 204 "No Content"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dashboard/projects/{id} [delete]
func (h *Handler) DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	err = h.projects.Delete(c.Request.Context(), projectID)
	if err == project.ErrNotFound {
		h.respondError(c, http.StatusNotFound, errNotFound(c))
		return
	}
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, models.NewErrorResponse(
			models.ErrCodeInternalError, i18n.Localize(locale(c), i18n.KeyInternalError), errDetails(err)))
		return
	}

	c.Status(http.StatusNoContent)
}

// GetNotificationPreferences godoc
// @Summary Get notification preferences
// @Tags notifications
// @Produce json
// @Success 200 {object} notify.Preferences
// @Security BearerAuth
// @Router /notifications/preferences [get]
func (h *Handler) GetNotificationPreferences(c *gin.Context) {
	userID, _ := c.Get(auth.UserIDKey)
	userIDStr, _ := userID.(string)
	c.JSON(http.StatusOK, h.notifications.GetPreferences(userIDStr))
}

// SetNotificationPreferences godoc
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body notify.Preferences true "Preferences"
// @Success 200 {object} notify.Preferences
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/preferences [put]
func (h *Handler) SetNotificationPreferences(c *gin.Context) {
	var prefs notify.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	userID, _ := c.Get(auth.UserIDKey)
	prefs.UserID, _ = userID.(string)
	c.JSON(http.StatusOK, h.notifications.SetPreferences(prefs))
}

// ListNotifications godoc
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {array} notify.Notification
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, _ := c.Get(auth.UserIDKey)
	userIDStr, _ := userID.(string)

	list := h.notifications.List(userIDStr)
	if list == nil {
		list = []notify.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

// MarkNotificationRead godoc
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, _ := c.Get(auth.UserIDKey)
	userIDStr, _ := userID.(string)

	h.notifications.MarkRead(userIDStr, c.Param("id"))
	c.Status(http.StatusNoContent)
}

// SubmitFeedback godoc
// @Summary Submit feedback
// @Description Record rating and comment for a generation job
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body models.FeedbackRequest true "Feedback"
// @Success 201 {object} notify.Feedback
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /feedback [post]
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidRequest, i18n.Localize(locale(c), i18n.KeyInvalidRequest), nil))
		return
	}

	userID, _ := c.Get(auth.UserIDKey)
	userIDStr, _ := userID.(string)

	f := h.feedback.Submit(req.JobID, userIDStr, req.Rating, req.Comment)
	c.JSON(http.StatusCreated, f)
}

// GetFeedbackSummary godoc
// @Summary Aggregate feedback
// @Tags feedback
// @Produce json
// @Success 200 {object} notify.FeedbackSummary
// @Security BearerAuth
// @Router /feedback/summary [get]
func (h *Handler) GetFeedbackSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.feedback.Summary())
}

// authedUserID extracts and parses the authenticated user ID, writing the
// error response itself when it fails.
func (h *Handler) authedUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get(auth.UserIDKey)
	if !exists {
		h.respondError(c, http.StatusUnauthorized, models.NewErrorResponse(
			models.ErrCodeUnauthorized, i18n.Localize(locale(c), i18n.KeyUnauthorized), nil))
		return uuid.Nil, false
	}
	userIDStr, _ := userIDVal.(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.respondError(c, http.StatusUnauthorized, models.NewErrorResponse(
			models.ErrCodeUnauthorized, i18n.Localize(locale(c), i18n.KeyUnauthorized), nil))
		return uuid.Nil, false
	}
	return userID, true
}
