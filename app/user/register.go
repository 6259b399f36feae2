package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	FullName        *string `json:"fullName"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	reg, err := d.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    data.Email,
		Username: data.Username,
		Password: data.Password,
		Confirm:  data.ConfirmPassword,
		FullName: data.FullName,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	extra := gin.H{
		"user":      reg.User,
		"delivered": reg.Delivered,
	}

	if !reg.Delivered {
		extra["link"] = reg.Link
		zap.L().Warn("Verification email not delivered", zap.Uint("userID", reg.User.ID), zap.String("requestID", requestID))
	}

	respond.OK(c, http.StatusCreated, reg.Message, extra)
}
