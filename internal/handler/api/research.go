package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	"FinResearch/internal/service/ratelimit"
	"FinResearch/internal/usecase"
	"FinResearch/pkg/cache"
	xhttp "FinResearch/pkg/http"
	xlogger "FinResearch/pkg/logger"
	"FinResearch/pkg/util"
)

const (
	defaultCacheTTL  = time.Minute
	rateCapacity     = 5
	rateRefillPerSec = 0.2
)

// Researcher runs one research request end to end.
type Researcher interface {
	Run(ctx context.Context, token string, deliver bool, obs usecase.Observer) *models.Report
}

type HandlerOption func(*ResearchHandler)

// WithJobQueue enables the async job endpoints.
func WithJobQueue(q domrepo.JobQueue) HandlerOption {
	return func(h *ResearchHandler) { h.queue = q }
}

// WithResponseCache serves repeated synchronous requests for a token from c for ttl.
func WithResponseCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *ResearchHandler) {
		h.cache = c
		if ttl > 0 {
			h.cacheTTL = ttl
		}
	}
}

// WithRateLimiter overrides the per-client limiter.
func WithRateLimiter(rl *ratelimit.Limiter) HandlerOption {
	return func(h *ResearchHandler) { h.rl = rl }
}

// ResearchHandler serves the research endpoints.
type ResearchHandler struct {
	logger   *xlogger.Logger
	research Researcher
	queue    domrepo.JobQueue
	cache    cache.Service
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
}

func NewResearchHandler(logger *xlogger.Logger, research Researcher, opts ...HandlerOption) *ResearchHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	h := &ResearchHandler{
		logger:   logger,
		research: research,
		cacheTTL: defaultCacheTTL,
		rl:       ratelimit.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ResearchHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/research")
	g.GET("", h.Research)
	g.POST("/jobs", h.EnqueueJob)
	g.GET("/jobs/:id", h.JobStatus)
	e.GET("/ws/research", h.Stream)
}

func errRateLimited() *xhttp.AppError {
	return xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many research requests", http.StatusTooManyRequests)
}

// Research runs a synchronous research request.
func (h *ResearchHandler) Research(c echo.Context) error {
	req := &models.ResearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, err := normalizeToken(req.Token)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if !h.rl.Allow(c.RealIP()+":research", rateCapacity, rateRefillPerSec) {
		h.logger.Warn("research rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, errRateLimited())
	}

	run := func(ctx context.Context) (models.ResearchResponse, error) {
		report := h.research.Run(ctx, token, req.Deliver, nil)
		return models.NewResearchResponse(report.Result, report.Sections), nil
	}
	if req.Deliver {
		resp, _ := run(c.Request().Context())
		return xhttp.SuccessResponse(c, resp)
	}
	resp, _ := cache.GetOrLoad(c.Request().Context(), h.cache, cache.Key("research", token), h.cacheTTL, run)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, resp)
}

type jobAccepted struct {
	JobID string `json:"job_id"`
	Token string `json:"token"`
}

// EnqueueJob queues a research request for the background worker.
func (h *ResearchHandler) EnqueueJob(c echo.Context) error {
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("research queue disabled"))
	}
	req := &models.ResearchJobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	token, err := normalizeToken(req.Token)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	req.Token = token

	id, err := h.queue.EnqueueResearch(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("research enqueue error", xlogger.String("token", token), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("could not queue research").WithError(err))
	}
	h.logger.Info("research job queued", xlogger.String("job_id", id), xlogger.String("token", token))
	return xhttp.AcceptedResponse(c, jobAccepted{JobID: id, Token: token})
}

// JobStatus reports the state of a queued research request.
func (h *ResearchHandler) JobStatus(c echo.Context) error {
	if h.queue == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("research queue disabled"))
	}
	job, err := h.queue.ResearchStatus(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrJobNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("research job not found").WithParam("id", c.Param("id")))
	}
	if err != nil {
		h.logger.Error("research status error", xlogger.String("job_id", c.Param("id")), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not load job status").WithError(err))
	}
	return xhttp.SuccessResponse(c, job)
}

// normalizeToken accepts a bare symbol or free text such as "research bitcoin".
func normalizeToken(raw string) (string, error) {
	token := strings.ToUpper(util.ExtractToken(raw))
	if token == "" {
		return "", xhttp.BadRequestError("token not recognised").WithParam("token", raw)
	}
	return token, nil
}
