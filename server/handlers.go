package server

import (
	"net/http"

	"github.com/microcosm-cc/itemcache/controller"
)

func handlers(env *controller.Env) map[string]func(http.ResponseWriter, *http.Request) {
	return map[string]func(http.ResponseWriter, *http.Request){
		"/api/items":                          env.ItemsHandler,
		"/api/items/{item_id:[0-9A-Za-z_-]+}": env.ItemHandler,
		"/api/cache-status":                   env.CacheStatusHandler,

		"/health": env.HealthHandler,
	}
}
