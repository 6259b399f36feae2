package user

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	// Identifier is an email address or a username
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	user, err := d.Auth.Login(c.Request.Context(), data.Identifier, data.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	cfg := d.SessionConfig()

	// A fresh login replaces whatever session the client had
	endSession(c, d)

	s, err := d.Sessions.Start(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":        false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to start session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	cookie, err := d.Signer.Sign(s.ID)
	if err != nil {
		d.Sessions.End(s.ID)

		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":        false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sign session cookie", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	middleware.SetSessionCookie(c, cfg, cookie)
	respond.OK(c, http.StatusOK, "Login successful", gin.H{"user": user})
}

// endSession ends the session named by the request cookie, if any.
func endSession(c *gin.Context, d *internal.Deps) {
	value, err := c.Cookie(d.Config.Session.CookieName)
	if err != nil || value == "" {
		return
	}

	id, err := d.Signer.Parse(value)
	if err != nil {
		return
	}

	if err := d.Sessions.End(id); err != nil {
		zap.L().Warn("Failed to end session", zap.Error(err))
	}
}
