package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/matthewjablack/dynamicdashboard/internal/dashboard"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
	"github.com/matthewjablack/dynamicdashboard/internal/store"
)

// payloadValidate checks request shape only; layout geometry is the grid's concern.
var payloadValidate = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("breakpoint", func(fl validator.FieldLevel) bool {
		return model.Breakpoint(fl.Field().String()).Valid()
	})
	return v
}

type componentPayload struct {
	ID    string      `json:"id" validate:"required,max=200"`
	Type  string      `json:"type" validate:"required,max=100"`
	Props model.Props `json:"props"`
}

type layoutPayload struct {
	WidgetID string  `json:"i" validate:"required"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	MinW     float64 `json:"minW"`
	MinH     float64 `json:"minH"`
}

type dashboardPayload struct {
	Name       string                     `json:"name" validate:"max=200"`
	Components []componentPayload         `json:"components" validate:"max=500,dive"`
	Layouts    map[string][]layoutPayload `json:"layouts" validate:"dive,keys,breakpoint,endkeys,dive"`
}

func (p dashboardPayload) toModel() model.Dashboard {
	d := model.Dashboard{
		Name:       p.Name,
		Components: make([]model.WidgetInstance, len(p.Components)),
		Layouts:    make(model.Layouts, len(p.Layouts)),
	}
	if d.Name == "" {
		d.Name = dashboard.DefaultName
	}
	for i, c := range p.Components {
		d.Components[i] = model.WidgetInstance{ID: c.ID, Type: c.Type, Props: c.Props.Normalize()}
	}
	for bp, entries := range p.Layouts {
		out := make([]model.LayoutEntry, len(entries))
		for i, e := range entries {
			out[i] = model.LayoutEntry(e)
		}
		d.Layouts[model.Breakpoint(bp)] = out
	}
	return d
}

func bindDashboard(c *gin.Context) (model.Dashboard, bool) {
	var p dashboardPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return model.Dashboard{}, false
	}
	if err := payloadValidate.Struct(p); err != nil {
		writeError(c, http.StatusBadRequest, validationMessage(err))
		return model.Dashboard{}, false
	}
	return p.toModel(), true
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return "invalid field " + ve[0].Namespace() + ": " + ve[0].Tag()
	}
	return err.Error()
}

type dashboardAPI struct {
	store *store.Store
	log   *slog.Logger
}

func (a *dashboardAPI) list(c *gin.Context) {
	list, err := a.store.ListDashboards(c.Request.Context(), userOf(c))
	if err != nil {
		a.internal(c, "list dashboards", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *dashboardAPI) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := a.store.GetDashboard(c.Request.Context(), userOf(c), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		a.internal(c, "get dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *dashboardAPI) create(c *gin.Context) {
	d, ok := bindDashboard(c)
	if !ok {
		return
	}
	created, err := a.store.CreateDashboard(c.Request.Context(), userOf(c), d)
	if err != nil {
		a.internal(c, "create dashboard", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *dashboardAPI) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, ok := bindDashboard(c)
	if !ok {
		return
	}
	err := a.store.UpdateDashboard(c.Request.Context(), userOf(c), id, d)
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		a.internal(c, "update dashboard", err)
		return
	}
	d.ID = &id
	c.JSON(http.StatusOK, d)
}

func (a *dashboardAPI) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := a.store.DeleteDashboard(c.Request.Context(), userOf(c), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		a.internal(c, "delete dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (a *dashboardAPI) internal(c *gin.Context, op string, err error) {
	a.log.Error(op+" failed", slog.Any("error", err), slog.String(requestIDKey, c.GetString(requestIDKey)))
	writeError(c, http.StatusInternalServerError, "internal error")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
