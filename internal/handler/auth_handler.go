package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-balancer/internal/models"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
	"github.com/noah-isme/timetable-balancer/pkg/response"
)

type authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler issues access tokens and describes the current caller.
type AuthHandler struct {
	service authenticator
}

func NewAuthHandler(svc authenticator) *AuthHandler {
	return &AuthHandler{service: svc}
}

type currentUser struct {
	models.UserInfo
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.LoginRequest
	if err := c.ShouldBindJSON(&creds); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Tokens must not land in shared caches.
	c.Header("Cache-Control", "no-store")
	response.JSON(c, http.StatusOK, session, nil)
}

// Me godoc
// @Summary Describe the authenticated caller
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	me := currentUser{UserInfo: claims.Info()}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		me.ExpiresAt = &exp
	}
	response.JSON(c, http.StatusOK, me, nil)
}
