package controller

import (
	"errors"

	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExerciseController struct {
	ExerciseService *service.ExerciseService
}

func NewExerciseController(exerciseService *service.ExerciseService) *ExerciseController {
	return &ExerciseController{ExerciseService: exerciseService}
}

// List godoc
// @Summary List exercises
// @Tags exercises
// @Produce json
// @Param type query string false "Exercise type" Enums(challenge, listening, speaking)
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /exercises [get]
func (ctl *ExerciseController) List(c *gin.Context) {
	page := int(util.MustParseUint(c.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))

	exercises, total, err := ctl.ExerciseService.List(c.Query("type"), middleware.IsStaff(c), page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{
		List:  exercises,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Get godoc
// @Summary Get an exercise with its questions
// @Tags exercises
// @Produce json
// @Param id path int true "Exercise ID"
// @Success 200 {object} util.Response{data=model.Exercise}
// @Router /exercises/{id} [get]
func (ctl *ExerciseController) Get(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	exercise, err := ctl.ExerciseService.Get(c.Request.Context(), id, middleware.IsStaff(c))
	if err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, exercise)
}

// Create godoc
// @Summary Create an exercise
// @Tags exercises
// @Accept json
// @Produce json
// @Param request body service.ExerciseInput true "Exercise"
// @Success 201 {object} util.Response{data=model.Exercise}
// @Security BearerAuth
// @Router /admin/exercises [post]
func (ctl *ExerciseController) Create(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var input service.ExerciseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	exercise, err := ctl.ExerciseService.Create(claims.UserID, &input)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Created(c, exercise)
}

// Update godoc
// @Summary Update an exercise and replace its question set
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path int true "Exercise ID"
// @Param request body service.ExerciseInput true "Exercise"
// @Success 200 {object} util.Response{data=model.Exercise}
// @Security BearerAuth
// @Router /admin/exercises/{id} [put]
func (ctl *ExerciseController) Update(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	var input service.ExerciseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	exercise, err := ctl.ExerciseService.Update(c.Request.Context(), id, &input)
	if err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, exercise)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive godoc
// @Summary Publish or retire an exercise
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path int true "Exercise ID"
// @Param request body setActiveRequest true "Active flag"
// @Success 200 {object} util.Response{data=model.Exercise}
// @Security BearerAuth
// @Router /admin/exercises/{id}/active [patch]
func (ctl *ExerciseController) SetActive(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	exercise, err := ctl.ExerciseService.SetActive(c.Request.Context(), id, req.Active)
	if err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, exercise)
}

// Delete godoc
// @Summary Delete an exercise and its questions
// @Tags exercises
// @Produce json
// @Param id path int true "Exercise ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /admin/exercises/{id} [delete]
func (ctl *ExerciseController) Delete(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	if err := ctl.ExerciseService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, nil)
}
