package controller

import (
	"net/http"

	"github.com/microcosm-cc/itemcache/models"
)

// ItemHandler serves a single item
func (env *Env) ItemHandler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	ctl := ItemController{Items: env.Items}

	switch c.GetHTTPMethod() {
	case "OPTIONS":
		c.RespondWithOptions([]string{"OPTIONS", "DELETE"})
		return
	case "DELETE":
		ctl.Delete(c)
	default:
		c.RespondWithStatus(http.StatusMethodNotAllowed)
		return
	}
}

// ItemController deletes items
type ItemController struct {
	Items *models.Items
}

// Delete removes the item named in the URL
func (ctl *ItemController) Delete(c *models.Context) {
	id := c.RouteVars["item_id"]
	if id == "" {
		c.RespondWithNotFound()
		return
	}

	status, err := ctl.Items.Delete(c.Request.Context(), id)
	if err != nil {
		c.RespondWithErrorDetail(err, status)
		return
	}

	c.RespondWithMessage("Item removed")
}
