package controller

import (
	"errors"

	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

// List godoc
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param level query int false "Level filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /lessons [get]
func (ctl *LessonController) List(c *gin.Context) {
	level := int(util.MustParseUint(c.DefaultQuery("level", "0")))
	page := int(util.MustParseUint(c.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))

	lessons, total, err := ctl.LessonService.List(c.Request.Context(), middleware.IsStaff(c), level, page, limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{
		List:  lessons,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Get godoc
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /lessons/{id} [get]
func (ctl *LessonController) Get(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	lesson, err := ctl.LessonService.Get(c.Request.Context(), id, middleware.IsStaff(c))
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, lesson)
}

// Create godoc
// @Summary Create a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param request body service.LessonInput true "Lesson"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Security BearerAuth
// @Router /admin/lessons [post]
func (ctl *LessonController) Create(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var input service.LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	lesson, err := ctl.LessonService.Create(claims.UserID, &input)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Created(c, lesson)
}

// Update godoc
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body service.LessonInput true "Lesson"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Security BearerAuth
// @Router /admin/lessons/{id} [put]
func (ctl *LessonController) Update(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	var input service.LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	lesson, err := ctl.LessonService.Update(c.Request.Context(), id, &input)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, lesson)
}

// UploadMedia godoc
// @Summary Attach audio or video to a lesson
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Lesson ID"
// @Param kind query string false "Media kind" Enums(audio, video) default(video)
// @Param file formData file true "Media file"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Security BearerAuth
// @Router /admin/lessons/{id}/media [post]
func (ctl *LessonController) UploadMedia(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	kind := c.DefaultQuery("kind", "video")
	if kind != "audio" && kind != "video" {
		util.BadRequest(c, "kind must be audio or video")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		util.BadRequest(c, "file is required")
		return
	}

	lesson, err := ctl.LessonService.AttachMedia(c.Request.Context(), id, file, kind)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(c)
		case errors.Is(err, util.ErrUnsupportedMediaFormat):
			util.BadRequest(c, err.Error())
		default:
			util.LogInternalError(c, err)
		}
		return
	}

	util.Success(c, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /admin/lessons/{id} [delete]
func (ctl *LessonController) Delete(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	if err := ctl.LessonService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, nil)
}
