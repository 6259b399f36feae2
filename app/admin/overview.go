// Package admin contains the endpoints of the admin dashboard
package admin

import (
	"bitwise74/learning-api/app/respond"
	"bitwise74/learning-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func AdminOverview(c *gin.Context, d *internal.Deps) {
	o, err := d.Admin.Overview(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "", gin.H{
		"overview": o,
		"sessions": d.Sessions.Count(),
	})
}
