package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/whitespace-backend/internal/http/response"
	whitespacemod "github.com/yungbote/whitespace-backend/internal/modules/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/canonical"
	"github.com/yungbote/whitespace-backend/internal/platform/apierr"
	"github.com/yungbote/whitespace-backend/internal/platform/ctxutil"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// WhitespaceService is the slice of the usecases the handler needs.
type WhitespaceService interface {
	Analyze(ctx context.Context, userID string, req whitespacemod.Request) (*whitespacemod.Response, error)
	SearchAssignees(ctx context.Context, query string) ([]canonical.Candidate, error)
}

type WhitespaceHandlerDeps struct {
	Log     *logger.Logger
	Service WhitespaceService
}

type WhitespaceHandler struct {
	log *logger.Logger
	svc WhitespaceService
}

func NewWhitespaceHandlerWithDeps(deps WhitespaceHandlerDeps) *WhitespaceHandler {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &WhitespaceHandler{log: log.With("handler", "WhitespaceHandler"), svc: deps.Service}
}

// POST /api/whitespace/graph
func (h *WhitespaceHandler) Graph(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	req := whitespacemod.DefaultRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.svc.Analyze(c.Request.Context(), rd.UserID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/whitespace/assignees?q=
func (h *WhitespaceHandler) SearchAssignees(c *gin.Context) {
	out, err := h.svc.SearchAssignees(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"candidates": out})
}

func (h *WhitespaceHandler) fail(c *gin.Context, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.log.Error("whitespace request failed", "path", c.FullPath(), "error", err)
	}
	response.RespondAPIError(c, ae)
}

// toAPIError maps usecase errors onto the public error codes.
func toAPIError(err error) *apierr.Error {
	var ve *whitespacemod.ValidationError
	switch {
	case errors.As(err, &ve):
		return apierr.New(http.StatusBadRequest, "invalid_request", err).WithDetails(ve.Violations...)
	case errors.Is(err, whitespacemod.ErrInsufficientData):
		return apierr.New(http.StatusBadRequest, "insufficient_data", err)
	case errors.Is(err, whitespacemod.ErrNoAssigneeMatch):
		return apierr.New(http.StatusNotFound, "assignee_not_found", err)
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	return apierr.New(http.StatusInternalServerError, "whitespace_failed", err)
}
