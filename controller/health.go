package controller

import (
	"net/http"
	"time"

	"github.com/microcosm-cc/itemcache/models"
)

// HealthHandler reports the connection state of the store and cache. It
// always answers 200 so that a load balancer can tell the process is alive.
func (env *Env) HealthHandler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case "OPTIONS":
		c.RespondWithOptions([]string{"OPTIONS", "GET", "HEAD"})
		return
	case "GET", "HEAD":
		c.RespondWithData(env.Items.Health(time.Now()))
	default:
		c.RespondWithStatus(http.StatusMethodNotAllowed)
		return
	}
}

// NotFoundHandler answers any unknown route
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	models.MakeContext(r, w).RespondWithNotFound()
}
