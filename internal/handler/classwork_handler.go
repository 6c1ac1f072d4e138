package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanzad/portal-api/internal/models"
	"github.com/sanzad/portal-api/internal/service"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/response"
)

// maxSubmissionBytes caps uploaded submission files at 10 MiB.
const maxSubmissionBytes = 10 << 20

// ClassworkHandler serves the teacher/student coursework loop.
type ClassworkHandler struct {
	classwork *service.ClassworkService
}

// NewClassworkHandler creates a new handler.
func NewClassworkHandler(classwork *service.ClassworkService) *ClassworkHandler {
	return &ClassworkHandler{classwork: classwork}
}

// CreateAssignment godoc
// @Summary Create assignment
// @Description Store new coursework owned by the authenticated teacher
// @Tags Classwork
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classwork/assignments [post]
func (h *ClassworkHandler) CreateAssignment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.classwork.CreateAssignment(c.Request.Context(), claims.AccountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, assignment)
}

// ListAssignments godoc
// @Summary List assignments
// @Description Teachers see their own coursework; students see published work from their institution
// @Tags Classwork
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classwork/assignments [get]
func (h *ClassworkHandler) ListAssignments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var (
		assignments []models.Assignment
		err         error
	)
	switch claims.Role {
	case models.RoleTeacher:
		assignments, err = h.classwork.AssignmentsForTeacher(c.Request.Context(), claims.AccountID)
	case models.RoleStudent:
		assignments, err = h.classwork.AssignmentsForStudent(c.Request.Context(), claims.AccountID)
	default:
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignments)
}

// Submit godoc
// @Summary Submit work
// @Description Upload a file against a published assignment
// @Tags Classwork
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Assignment ID"
// @Param file formData file true "Submission file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classwork/assignments/{id}/submissions [post]
func (h *ClassworkHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	assignmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "submission file is required"))
		return
	}
	if fileHeader.Size > maxSubmissionBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "submission file is too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open submission file"))
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, maxSubmissionBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read submission file"))
		return
	}

	submission, err := h.classwork.SubmitWork(c.Request.Context(), claims.AccountID, assignmentID, fileHeader.Filename, fileBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, submission)
}

// ListSubmissions godoc
// @Summary List submissions
// @Description Teachers see work against their assignments; students see their own uploads
// @Tags Classwork
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classwork/submissions [get]
func (h *ClassworkHandler) ListSubmissions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	switch claims.Role {
	case models.RoleTeacher:
		views, err := h.classwork.SubmissionsForTeacher(c.Request.Context(), claims.AccountID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, views)
	case models.RoleStudent:
		views, err := h.classwork.SubmissionsForStudent(c.Request.Context(), claims.AccountID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, views)
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}

// Grade godoc
// @Summary Grade a submission
// @Description Score work submitted against the teacher's own assignment
// @Tags Classwork
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classwork/submissions/{id}/grade [post]
func (h *ClassworkHandler) Grade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submissionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission id"))
		return
	}

	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	grade, err := h.classwork.GradeSubmission(c.Request.Context(), claims.AccountID, submissionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, grade)
}

// ListGrades godoc
// @Summary List grades
// @Description List the authenticated student's grades newest-first
// @Tags Classwork
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classwork/grades [get]
func (h *ClassworkHandler) ListGrades(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	grades, err := h.classwork.GradesForStudent(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grades)
}
