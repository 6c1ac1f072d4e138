package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanzad/portal-api/internal/models"
	"github.com/sanzad/portal-api/internal/service"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to registration and the auth gate.
type AuthHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
	metrics  *service.MetricsService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, accounts *service.AccountService, metrics *service.MetricsService) *AuthHandler {
	return &AuthHandler{auth: auth, accounts: accounts, metrics: metrics}
}

// Register godoc
// @Summary Register account
// @Description Create a new account with the next sequential code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	account, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.metrics.RecordRegistration("rejected")
		response.Error(c, err)
		return
	}

	h.metrics.RecordRegistration("success")
	response.Created(c, account)
}

// Login godoc
// @Summary Authenticate account
// @Description Authenticate by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.metrics.RecordLogin("rejected")
		response.Error(c, err)
		return
	}

	h.metrics.RecordLogin("success")
	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke outstanding tokens for the account
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Me godoc
// @Summary Get current account
// @Description Returns the authenticated account's sanitized identity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info := models.AccountInfo{
		ID:       claims.AccountID,
		Code:     claims.Code,
		FullName: claims.FullName,
		Email:    claims.Email,
		Role:     claims.Role,
	}

	response.JSON(c, http.StatusOK, info)
}
