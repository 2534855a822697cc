package controller

import (
	"errors"

	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// Me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Success 200 {object} util.Response{data=model.User}
// @Security BearerAuth
// @Router /users/me [get]
func (ctl *UserController) Me(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	user, err := ctl.UserService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, user)
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileRequest true "Profile"
// @Success 200 {object} util.Response{data=model.User}
// @Security BearerAuth
// @Router /users/me [put]
func (ctl *UserController) UpdateMe(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	user, err := ctl.UserService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, user)
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.ChangePasswordRequest true "Passwords"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /users/me/password [put]
func (ctl *UserController) ChangePassword(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if err := ctl.UserService.ChangePassword(c.Request.Context(), claims.UserID, &req); err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, nil)
}

// List godoc
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param role query string false "Role filter"
// @Param search query string false "Name or email search"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /admin/users [get]
func (ctl *UserController) List(c *gin.Context) {
	page := int(util.MustParseUint(c.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))

	users, total, err := ctl.UserService.List(page, limit, c.Query("role"), c.Query("search"))
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, util.PageResponse{
		List:  users,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

type setDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

// SetDisabled godoc
// @Summary Enable or disable an account (admin)
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body setDisabledRequest true "Disabled flag"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /admin/users/{id}/disabled [patch]
func (ctl *UserController) SetDisabled(c *gin.Context) {
	id := util.MustParseUint(c.Param("id"))

	var req setDisabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	if err := ctl.UserService.SetDisabled(c.Request.Context(), id, req.Disabled); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(c)
			return
		}
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, nil)
}
