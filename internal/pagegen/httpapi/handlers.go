package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
	"github.com/yungbote/pagegen-backend/internal/pagegen/pipeline"
	"github.com/yungbote/pagegen-backend/internal/pagegen/schema"
	"github.com/yungbote/pagegen-backend/internal/pagegen/store"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

const headerGenerationProvider = "X-Generation-Provider"

// Generator is satisfied by *service.Service.
type Generator interface {
	GenerateLanding(ctx context.Context, req pipeline.Request) (pipeline.Result[schema.PageDocument], error)
	GenerateBio(ctx context.Context, req pipeline.Request) (pipeline.Result[[]schema.BioElement], error)
	RecentRuns(ctx context.Context, kind string, limit int) ([]*store.GenerationRun, error)
	Ready(ctx context.Context) error
}

type GenerationHandler struct {
	gen Generator
	log *logger.Logger
}

func NewGenerationHandler(gen Generator, log *logger.Logger) *GenerationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GenerationHandler{gen: gen, log: log.With("handler", "GenerationHandler")}
}

type generateBody struct {
	Prompt any `json:"prompt"`
}

// POST /generate-landing-page
func (h *GenerationHandler) GenerateLanding(c *gin.Context) {
	req, err := bindGenerateRequest(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	res, err := h.gen.GenerateLanding(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header(headerGenerationProvider, res.Provider)
	RespondOK(c, res.Document)
}

// POST /generate-bio-elements
func (h *GenerationHandler) GenerateBio(c *gin.Context) {
	req, err := bindGenerateRequest(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	res, err := h.gen.GenerateBio(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header(headerGenerationProvider, res.Provider)
	RespondOK(c, res.Document)
}

// GET /generation-runs?kind=&limit=
func (h *GenerationHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, generr.InvalidRequest("limit", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	runs, err := h.gen.RecentRuns(c.Request.Context(), strings.TrimSpace(c.Query("kind")), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"runs": runs})
}

func (h *GenerationHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *GenerationHandler) Ready(c *gin.Context) {
	if err := h.gen.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "not_ready"}})
		return
	}
	c.String(http.StatusOK, "ok")
}

func (h *GenerationHandler) fail(c *gin.Context, err error) {
	if generr.Status(err) >= http.StatusInternalServerError {
		h.log.Error("generation request failed", "path", c.FullPath(), "code", generr.Code(err), "error", err)
	}
	RespondError(c, err)
}

func bindGenerateRequest(c *gin.Context) (pipeline.Request, error) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return pipeline.Request{}, generr.InvalidRequest("body", "request body too large")
		}
		return pipeline.Request{}, generr.InvalidRequest("body", "request body must be a JSON object")
	}
	prompt, ok := body.Prompt.(string)
	if !ok {
		return pipeline.Request{}, generr.InvalidRequest("prompt", "prompt is required and must be a non-empty string")
	}
	req := pipeline.Request{Prompt: prompt}
	return req, req.Validate()
}
