package leave

import (
	"net/http"
	"strconv"
	"strings"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	}
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("leave request failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Warn("leave request failed", fields...)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) bindError(c *gin.Context, op string, err error) {
	h.logger.Warn("http "+op+" validation failed", zap.Error(err))
	h.writeServiceError(c, apperror.MapValidationError(err))
}

// writeIntake maps the outcome onto the status code: a new ledger entry is
// 201, everything else (including a rejection) is 200.
func writeIntake(c *gin.Context, resp IntakeResponse) {
	status := http.StatusOK
	if resp.Status == StatusSubmitted {
		status = http.StatusCreated
	}
	response.Success(c, status, resp, nil)
}

func queryEmail(c *gin.Context) (string, bool) {
	email := strings.TrimSpace(c.Query("email"))
	return email, email != ""
}

func (h *Handler) Init(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "init draft", err)
		return
	}
	h.logger.Debug("http init draft", zap.String("email", req.Email))

	resp, err := h.service.Init(c.Request.Context(), req.Email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	writeIntake(c, resp)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "update draft", err)
		return
	}
	h.logger.Debug("http update draft", zap.String("email", req.Email))

	resp, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	writeIntake(c, resp)
}

func (h *Handler) Submit(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "submit leave", err)
		return
	}
	h.logger.Debug("http submit leave", zap.String("email", req.Email))

	resp, err := h.service.Submit(c.Request.Context(), req.Email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	writeIntake(c, resp)
}

func (h *Handler) Apply(c *gin.Context) {
	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, "apply leave", err)
		return
	}
	h.logger.Debug("http apply leave", zap.String("email", req.Email), zap.Bool("freeform", req.Text != ""))

	resp, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	writeIntake(c, resp)
}

func (h *Handler) GetDraft(c *gin.Context) {
	email, ok := queryEmail(c)
	if !ok {
		h.writeServiceError(c, leaveerrors.ErrEmailRequired)
		return
	}

	resp, err := h.service.GetDraft(c.Request.Context(), email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DeleteDraft(c *gin.Context) {
	email, ok := queryEmail(c)
	if !ok {
		h.writeServiceError(c, leaveerrors.ErrEmailRequired)
		return
	}

	if err := h.service.DeleteDraft(c.Request.Context(), email); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *Handler) GetBalance(c *gin.Context) {
	email, ok := queryEmail(c)
	if !ok {
		h.writeServiceError(c, leaveerrors.ErrEmailRequired)
		return
	}

	resp, err := h.service.GetBalance(c.Request.Context(), email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetApplications(c *gin.Context) {
	email, ok := queryEmail(c)
	if !ok {
		h.writeServiceError(c, leaveerrors.ErrEmailRequired)
		return
	}

	resp, err := h.service.GetApplications(c.Request.Context(), email)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	start, end := response.Paginate(len(resp), page, pageSize)
	meta := response.NewPaginationMeta(int64(len(resp)), page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}
