package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func UserResetRequest(c *gin.Context, d *internal.Deps) {
	var data resetRequestBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	res, err := d.Auth.RequestPasswordReset(c.Request.Context(), data.Email)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, res.Message, nil)
}

func UserReset(c *gin.Context, d *internal.Deps) {
	var data resetBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	err := d.Auth.ResetPassword(c.Request.Context(), data.Token, data.Password, data.ConfirmPassword)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "Password updated. You can now log in.", nil)
}
