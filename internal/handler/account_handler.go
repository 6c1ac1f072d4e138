package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanzad/portal-api/internal/models"
	"github.com/sanzad/portal-api/internal/service"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/response"
)

// AccountHandler serves the account directory and administrative status
// changes.
type AccountHandler struct {
	accounts  *service.AccountService
	directory *service.DirectoryService
	exports   *service.ExportService
}

// NewAccountHandler creates a new handler.
func NewAccountHandler(accounts *service.AccountService, directory *service.DirectoryService, exports *service.ExportService) *AccountHandler {
	return &AccountHandler{accounts: accounts, directory: directory, exports: exports}
}

// List godoc
// @Summary List accounts
// @Description List accounts filtered by role, status, institution or department
// @Tags Accounts
// @Produce json
// @Param role query string false "Role filter"
// @Param status query string false "Status filter"
// @Param institution query string false "Institution name filter"
// @Param department query string false "Department label filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	filter, err := buildAccountFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	accounts, err := h.accounts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, accounts)
}

// Get godoc
// @Summary Get account
// @Description Fetch a single account by id
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid account id"))
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, account)
}

type setStatusRequest struct {
	Status models.AccountStatus `json:"status" binding:"required"`
}

// SetStatus godoc
// @Summary Change account status
// @Description Block or unblock an account; blocking revokes its sessions
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param payload body setStatusRequest true "New status"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{id}/status [patch]
func (h *AccountHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid account id"))
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.accounts.SetStatus(c.Request.Context(), id, req.Status, claims.AccountID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ByInstitution godoc
// @Summary List institution members
// @Description List accounts of one institution, optionally narrowed to a role
// @Tags Accounts
// @Produce json
// @Param institution query string true "Institution name"
// @Param role query string false "Role filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts/by-institution [get]
func (h *AccountHandler) ByInstitution(c *gin.Context) {
	var role *models.AccountRole
	if raw := c.Query("role"); raw != "" {
		value := models.AccountRole(raw)
		switch value {
		case models.RoleStudent, models.RoleTeacher, models.RoleParent:
			role = &value
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role filter"))
			return
		}
	}

	accounts, err := h.directory.AccountsByInstitution(c.Request.Context(), c.Query("institution"), role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, accounts)
}

// Roster godoc
// @Summary Department roster
// @Description Split an institution's members into teachers and students
// @Tags Accounts
// @Produce json
// @Param institution query string true "Institution name"
// @Param department query string false "Department label"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accounts/roster [get]
func (h *AccountHandler) Roster(c *gin.Context) {
	roster, err := h.directory.Roster(c.Request.Context(), c.Query("institution"), c.Query("department"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roster)
}

// Export godoc
// @Summary Export accounts
// @Description Download the account directory as CSV or PDF
// @Tags Accounts
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /accounts/export [get]
func (h *AccountHandler) Export(c *gin.Context) {
	result, err := h.exports.ExportAccounts(c.Request.Context(), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func buildAccountFilter(c *gin.Context) (models.AccountFilter, error) {
	filter := models.AccountFilter{
		InstitutionName: c.Query("institution"),
		DepartmentLabel: c.Query("department"),
	}

	if raw := c.Query("role"); raw != "" {
		role := models.AccountRole(raw)
		switch role {
		case models.RoleStudent, models.RoleTeacher, models.RoleParent, models.RoleInstitution, models.RoleSuperAdmin:
			filter.Role = &role
		default:
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
		}
	}

	if raw := c.Query("status"); raw != "" {
		status := models.AccountStatus(raw)
		if status != models.AccountActive && status != models.AccountBlocked {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
		}
		filter.Status = &status
	}

	return filter, nil
}
