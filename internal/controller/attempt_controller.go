package controller

import (
	"errors"
	"net/http"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

// Submit godoc
// @Summary Submit an exercise attempt
// @Description Grades the submission, records the attempt and credits earned points
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path int true "Exercise ID"
// @Param request body service.SubmitRequest true "Submitted answers"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Security BearerAuth
// @Router /exercises/{id}/attempts [post]
func (ctl *AttemptController) Submit(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	exerciseID := util.MustParseUint(c.Param("id"))
	if exerciseID == 0 {
		util.BadRequest(c, "invalid exercise id")
		return
	}

	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := ctl.AttemptService.Submit(c.Request.Context(), claims.UserID, exerciseID, &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExerciseNotFound), errors.Is(err, util.ErrUserNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrExerciseInactive):
			util.Error(c, http.StatusForbidden, err.Error())
		case errors.Is(err, util.ErrLevelLocked):
			util.Error(c, http.StatusForbidden, err.Error())
		case errors.Is(err, util.ErrAttemptConflict):
			util.Conflict(c, err.Error())
		default:
			util.LogInternalError(c, err)
		}
		return
	}

	util.Success(c, result)
}

// History godoc
// @Summary List the caller's attempts
// @Tags attempts
// @Produce json
// @Param exerciseId query int false "Filter by exercise"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /attempts [get]
func (ctl *AttemptController) History(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	exerciseID := util.MustParseUint(c.DefaultQuery("exerciseId", "0"))
	page := int(util.MustParseUint(c.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))

	attempts, total, err := ctl.AttemptService.History(c.Request.Context(), claims.UserID, exerciseID, page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Get godoc
// @Summary Get one attempt
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /attempts/{id} [get]
func (ctl *AttemptController) Get(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	id := util.MustParseUint(c.Param("id"))
	attempt, err := ctl.AttemptService.Get(c.Request.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(c)
		default:
			util.LogInternalError(c, err)
		}
		return
	}

	util.Success(c, attempt)
}
