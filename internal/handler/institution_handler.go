package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanzad/portal-api/internal/service"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/response"
)

// InstitutionHandler serves the institution application workflow.
type InstitutionHandler struct {
	institutions *service.InstitutionService
	directory    *service.DirectoryService
	exports      *service.ExportService
}

// NewInstitutionHandler creates a new handler.
func NewInstitutionHandler(institutions *service.InstitutionService, directory *service.DirectoryService, exports *service.ExportService) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, directory: directory, exports: exports}
}

// Apply godoc
// @Summary Apply for institution registration
// @Description Submit an application; an existing name is left untouched
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body service.ApplyRequest true "Application payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /institutions/apply [post]
func (h *InstitutionHandler) Apply(c *gin.Context) {
	var req service.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	result, err := h.institutions.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// List godoc
// @Summary List institutions
// @Description List institutions, optionally filtered by status
// @Tags Institutions
// @Produce json
// @Param status query string false "pending or approved"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /institutions [get]
func (h *InstitutionHandler) List(c *gin.Context) {
	institutions, err := h.institutions.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, institutions)
}

// Approved godoc
// @Summary List approved institutions
// @Description Public listing of institutions visible to registrants
// @Tags Institutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions/approved [get]
func (h *InstitutionHandler) Approved(c *gin.Context) {
	institutions, err := h.directory.ApprovedInstitutions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, institutions)
}

// Pending godoc
// @Summary List pending applications
// @Description Applications awaiting approval
// @Tags Institutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions/pending [get]
func (h *InstitutionHandler) Pending(c *gin.Context) {
	institutions, err := h.directory.PendingInstitutions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, institutions)
}

type approveRequest struct {
	Code string `json:"code"`
}

// Approve godoc
// @Summary Approve an institution
// @Description Flip a pending application to approved, optionally setting its code
// @Tags Institutions
// @Accept json
// @Produce json
// @Param name path string true "Institution name"
// @Param payload body approveRequest false "Approval payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /institutions/{name}/approve [post]
func (h *InstitutionHandler) Approve(c *gin.Context) {
	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
			return
		}
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	institution, err := h.institutions.Approve(c.Request.Context(), c.Param("name"), req.Code, claims.AccountID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, institution)
}

// Delete godoc
// @Summary Delete a pending application
// @Description Remove a pending application; approved institutions are refused
// @Tags Institutions
// @Produce json
// @Param name path string true "Institution name"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /institutions/{name} [delete]
func (h *InstitutionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.institutions.Delete(c.Request.Context(), c.Param("name"), claims.AccountID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export institutions
// @Description Download the institution registry as CSV or PDF
// @Tags Institutions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /institutions/export [get]
func (h *InstitutionHandler) Export(c *gin.Context) {
	result, err := h.exports.ExportInstitutions(c.Request.Context(), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
