package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/interfaces/dto"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
	"github.com/orris-inc/sessiongate/internal/shared/utils"
)

// InternalSessionHandler serves the API the surrounding application calls
// on login, on every request it wants checked, and on logout.
type InternalSessionHandler struct {
	service InternalSessionService
	logger  logger.Interface
}

func NewInternalSessionHandler(service InternalSessionService, logger logger.Interface) *InternalSessionHandler {
	return &InternalSessionHandler{
		service: service,
		logger:  logger,
	}
}

// CreateSession handles POST /internal/sessions
func (h *InternalSessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.logger.Errorw("failed to create session", "user_id", req.UserID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.ToLoginResponse(result), "Session created")
}

// RegisterSession handles POST /internal/sessions/events
func (h *InternalSessionHandler) RegisterSession(c *gin.Context) {
	var req dto.RegisterSessionRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.HandleLogin(c.Request.Context(), req.ToEvent())
	if err != nil {
		h.logger.Errorw("failed to register session", "user_id", req.UserID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToRegisterSessionResponse(result))
}

// ValidateSession handles POST /internal/sessions/validate. A rejected token
// is a normal answer, not an error.
func (h *InternalSessionHandler) ValidateSession(c *gin.Context) {
	var req dto.ValidateSessionRequest
	if !h.bind(c, &req) {
		return
	}

	decision := h.service.Validate(c.Request.Context(), req.ToCommand())
	utils.SuccessResponse(c, http.StatusOK, "", dto.ToDecisionResponse(decision))
}

// Logout handles POST /internal/sessions/logout
func (h *InternalSessionHandler) Logout(c *gin.Context) {
	var req dto.LogoutSessionRequest
	if !h.bind(c, &req) {
		return
	}

	if req.All {
		closed := h.service.LogoutAll(c.Request.Context(), req.UserID)
		utils.SuccessResponse(c, http.StatusOK, "Logged out everywhere", &dto.LogoutResponse{SessionsClosed: closed})
		return
	}

	result := h.service.HandleLogout(c.Request.Context(), req.ToCommand())
	utils.SuccessResponse(c, http.StatusOK, "Logged out", dto.ToLogoutResponse(result))
}

func (h *InternalSessionHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warnw("invalid request body", "path", c.Request.URL.Path, "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("invalid request body", err.Error()))
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return false
	}
	return true
}
