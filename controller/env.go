package controller

import (
	"github.com/microcosm-cc/itemcache/models"
)

// Env holds the handles every controller needs. It is built once in main and
// passed to the router, replacing package level connection state.
type Env struct {
	Items *models.Items
}
