package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errVerifyFailed = &service.Error{
	Kind:    service.KindValidation,
	Message: "Invalid or already used verification link",
}

func UserVerify(c *gin.Context, d *internal.Deps) {
	token := c.Query("token")
	if token == "" {
		respond.Error(c, &service.Error{Kind: service.KindValidation, Message: "No verification token provided"})
		return
	}

	if !d.Auth.VerifyEmail(c.Request.Context(), token) {
		respond.Error(c, errVerifyFailed)
		return
	}

	respond.OK(c, http.StatusOK, "Email verified. You can now log in.", nil)
}
