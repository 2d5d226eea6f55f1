package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fleetdesk/internal/models"
	"fleetdesk/internal/services"
	"fleetdesk/internal/utils"
	"fleetdesk/internal/validators"
	"fleetdesk/pkg/logger"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates the request body. It writes the error
// response itself and reports whether the handler should continue.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return false
	}
	return true
}

// respondError maps service and model errors onto HTTP statuses.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var verrs validators.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		utils.ValidationErrorResponse(c, verrs.Details())
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, utils.CodeNotFound, err.Error())
	case errors.Is(err, services.ErrPrecondition):
		utils.ConflictResponse(c, utils.CodePreconditionFailed, err.Error())
	case errors.Is(err, services.ErrPolicyViolation):
		utils.ConflictResponse(c, utils.CodePolicyViolation, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, utils.CodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, validators.ErrEmptyRequest):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, models.ErrInvalidStopTransition),
		errors.Is(err, models.ErrMissingRecipient),
		errors.Is(err, models.ErrMissingFailureReason):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, utils.CodeInvalidTransition, err.Error())
	default:
		log.WithContext(c.Request.Context()).WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalServerErrorResponse(c)
	}
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return utils.DefaultListLimit
	}
	if limit > utils.MaxListLimit {
		return utils.MaxListLimit
	}
	return limit
}
