package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserLogout works with or without a valid session so clients can always
// get rid of the cookie.
func UserLogout(c *gin.Context, d *internal.Deps) {
	endSession(c, d)
	middleware.ClearSessionCookie(c, d.SessionConfig())

	respond.OK(c, http.StatusOK, "Logged out", nil)
}
