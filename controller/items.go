package controller

import (
	"fmt"
	"net/http"

	"github.com/microcosm-cc/itemcache/models"
)

// ItemsHandler serves the item collection
func (env *Env) ItemsHandler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	ctl := ItemsController{Items: env.Items}

	switch c.GetHTTPMethod() {
	case "OPTIONS":
		c.RespondWithOptions([]string{"OPTIONS", "GET", "HEAD", "POST"})
		return
	case "GET", "HEAD":
		ctl.ReadMany(c)
	case "POST":
		ctl.Create(c)
	default:
		c.RespondWithStatus(http.StatusMethodNotAllowed)
		return
	}
}

// ItemsController lists and creates items
type ItemsController struct {
	Items *models.Items
}

// ItemCreateType is the body accepted when creating an item
type ItemCreateType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ReadMany returns every item, newest first
func (ctl *ItemsController) ReadMany(c *models.Context) {
	data, status, err := ctl.Items.List(c.Request.Context())
	if err != nil {
		c.RespondWithErrorDetail(err, status)
		return
	}

	c.RespondWithJSON(data, status)
}

// Create stores a new item
func (ctl *ItemsController) Create(c *models.Context) {
	m := ItemCreateType{}
	err := c.Fill(&m)
	if err != nil {
		c.RespondWithErrorMessage(
			fmt.Sprintf("The post data is invalid: %v", err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	item, status, err := ctl.Items.Create(
		c.Request.Context(),
		m.Name,
		m.Description,
	)
	if err != nil {
		c.RespondWithErrorDetail(err, status)
		return
	}

	c.RespondWithCreated(item)
}
