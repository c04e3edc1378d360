package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/application/session/usecases"
	"github.com/orris-inc/sessiongate/internal/interfaces/dto"
	"github.com/orris-inc/sessiongate/internal/interfaces/http/middleware"
	"github.com/orris-inc/sessiongate/internal/shared/config"
	"github.com/orris-inc/sessiongate/internal/shared/constants"
	"github.com/orris-inc/sessiongate/internal/shared/errors"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
	"github.com/orris-inc/sessiongate/internal/shared/utils"
)

// SessionHandler serves the signed-in user's own session endpoints.
type SessionHandler struct {
	service      UserSessionService
	cookieConfig config.CookieConfig
	logger       logger.Interface
}

func NewSessionHandler(service UserSessionService, cookieConfig config.CookieConfig, logger logger.Interface) *SessionHandler {
	return &SessionHandler{
		service:      service,
		cookieConfig: cookieConfig,
		logger:       logger,
	}
}

// GetCurrent handles GET /api/sessions/current
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entry := h.service.GetActiveSessionInfo(c.Request.Context(), userID, c.GetString(constants.ContextKeySessionID))
	if entry == nil {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("no active session"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToSessionEntryDTO(entry))
}

// List handles GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	active := h.service.ListActiveSessions(c.Request.Context(), userID)
	utils.SuccessResponse(c, http.StatusOK, "", dto.ToActiveSessionsResponse(active))
}

// Logout handles POST /api/auth/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result := h.service.HandleLogout(c.Request.Context(), usecases.LogoutCommand{
		UserID:   userID,
		Metadata: middleware.RequestMetadata(c),
		Platform: middleware.RequestPlatform(c),
		TokenID:  c.GetString(constants.ContextKeyTokenID),
	})
	utils.ClearAuthCookies(c, h.cookieConfig)

	utils.SuccessResponse(c, http.StatusOK, "Logged out", dto.ToLogoutResponse(result))
}

// LogoutAll handles POST /api/auth/logout-all
func (h *SessionHandler) LogoutAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	closed := h.service.LogoutAll(c.Request.Context(), userID)
	utils.ClearAuthCookies(c, h.cookieConfig)

	utils.SuccessResponse(c, http.StatusOK, "Logged out everywhere", &dto.LogoutResponse{SessionsClosed: closed})
}

func currentUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint(constants.ContextKeyUserID)
	if userID == 0 {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("authentication required"))
		return 0, false
	}
	return userID, true
}
