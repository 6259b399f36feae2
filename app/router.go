// Package app wires the HTTP endpoints together
package app

import (
	"bitwise74/learning-api/app/admin"
	"bitwise74/learning-api/app/root"
	"bitwise74/learning-api/app/user"
	"bitwise74/learning-api/internal"
	"bitwise74/learning-api/pkg/middleware"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodySize = 1 << 20

func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     d.Config.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	auth := middleware.NewSessionMiddleware(d.SessionConfig())

	m := router.Group("/api", middleware.BodySizeLimiter(maxBodySize))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	u := m.Group("/users")
	{
		// POST /api/users 		-> Registers a new user
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a user and starts a session
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/logout 	-> Ends the current session
		u.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// GET /api/users/verify	-> Verifies the email of a new user
		u.GET("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/users/reset/request	-> Emails a password reset link
		u.POST("/reset/request", func(c *gin.Context) { user.UserResetRequest(c, d) })

		// POST /api/users/reset	-> Sets a new password using a reset token
		u.POST("/reset", func(c *gin.Context) { user.UserReset(c, d) })
	}

	me := u.Group("/me", auth)
	{
		// GET /api/users/me		-> Returns the signed in user
		me.GET("", func(c *gin.Context) { user.UserFetch(c, d) })

		// PATCH /api/users/me		-> Updates the profile of the signed in user
		me.PATCH("", func(c *gin.Context) { user.UserUpdate(c, d) })

		// POST /api/users/me/password	-> Changes the password of the signed in user
		me.POST("/password", func(c *gin.Context) { user.UserChangePassword(c, d) })
	}

	a := m.Group("/admin", auth, middleware.RequireAdmin())
	{
		// GET /api/admin/overview	-> Returns account counts for the dashboard
		a.GET("/overview", func(c *gin.Context) { admin.AdminOverview(c, d) })

		// GET /api/admin/users		-> Lists and searches users
		a.GET("/users", func(c *gin.Context) { admin.AdminListUsers(c, d) })

		// PATCH /api/admin/users/:id/role	-> Changes the role of a user
		a.PATCH("/users/:id/role", func(c *gin.Context) { admin.AdminSetRole(c, d) })

		// DELETE /api/admin/users/:id	-> Deletes a user and everything they own
		a.DELETE("/users/:id", func(c *gin.Context) { admin.AdminDeleteUser(c, d) })
	}

	return router
}
