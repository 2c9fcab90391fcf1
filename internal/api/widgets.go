package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

type widgetsAPI struct {
	registry *widget.Registry
	surface  grid.SurfaceConfig
}

func (a *widgetsAPI) list(c *gin.Context) {
	c.JSON(http.StatusOK, a.registry.ListTypes())
}

func (a *widgetsAPI) fields(c *gin.Context) {
	fields, err := a.registry.ConfigFields(c.Param("type"))
	if errors.Is(err, widget.ErrUnknownType) {
		writeError(c, http.StatusNotFound, "unknown widget type")
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (a *widgetsAPI) render(c *gin.Context) {
	def, ok := a.registry.Lookup(c.Param("type"))
	if !ok {
		writeError(c, http.StatusNotFound, "unknown widget type")
		return
	}
	var body struct {
		Props model.Props `json:"props"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	props, err := widget.CoerceProps(def, body.Props)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.registry.Render(def.Type, props)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *widgetsAPI) grid(c *gin.Context) {
	c.JSON(http.StatusOK, a.surface)
}
