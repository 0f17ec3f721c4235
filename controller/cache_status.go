package controller

import (
	"net/http"

	"github.com/microcosm-cc/itemcache/models"
)

// CacheStatusHandler reports whether the cache is up and what it holds
func (env *Env) CacheStatusHandler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case "OPTIONS":
		c.RespondWithOptions([]string{"OPTIONS", "GET"})
		return
	case "GET":
		c.RespondWithData(env.Items.CacheStatus())
	default:
		c.RespondWithStatus(http.StatusMethodNotAllowed)
		return
	}
}
