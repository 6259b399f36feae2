package admin

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/internal/service"
	"bitwise74/learning-api/pkg/middleware"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errBadUserID = &service.Error{Kind: service.KindValidation, Message: "Invalid user ID"}

type roleBody struct {
	Role string `json:"role"`
}

func AdminListUsers(c *gin.Context, d *internal.Deps) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	p, err := d.Admin.ListUsers(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", gin.H{
		"users":    p.Users,
		"total":    p.Total,
		"page":     p.Page,
		"pageSize": p.PageSize,
	})
}

func AdminSetRole(c *gin.Context, d *internal.Deps) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var data roleBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	actor := middleware.CurrentSession(c).User.ID

	user, err := d.Admin.SetRole(c.Request.Context(), actor, userID, data.Role)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Role updated", gin.H{"user": user})
}

func AdminDeleteUser(c *gin.Context, d *internal.Deps) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	actor := middleware.CurrentSession(c).User.ID

	if err := d.Admin.DeleteUser(c.Request.Context(), actor, userID); err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "User deleted", nil)
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respond.Error(c, errBadUserID)
		return 0, false
	}

	return uint(id), true
}
