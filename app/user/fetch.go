package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type profileBody struct {
	FullName *string `json:"fullName"`
}

type passwordBody struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserFetch returns the signed in user.
func UserFetch(c *gin.Context, d *internal.Deps) {
	s := middleware.CurrentSession(c)

	respond.OK(c, http.StatusOK, "", gin.H{"user": s.User})
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	s := middleware.CurrentSession(c)

	var data profileBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	user, err := d.Auth.UpdateProfile(c.Request.Context(), s.User.ID, data.FullName)
	if err != nil {
		respond.Error(c, err)
		return
	}

	if err := d.Sessions.Update(s.ID, *user); err != nil {
		zap.L().Warn("Failed to refresh session", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}

	respond.OK(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

func UserChangePassword(c *gin.Context, d *internal.Deps) {
	s := middleware.CurrentSession(c)

	var data passwordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	err := d.Auth.ChangePassword(c.Request.Context(), s.User.ID, data.CurrentPassword, data.Password, data.ConfirmPassword)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Password changed", nil)
}
