package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/admin"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// reserved query parameters; every other parameter is an equality filter.
var reserved = map[string]bool{"page": true, "page_size": true, "sort_field": true, "sort_dir": true}

type Handler struct {
	service *admin.Service
}

func NewHandler(service *admin.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/:entity")
	{
		records.GET("", h.FindActivePage)
		records.GET("/deleted", h.FindAllDeleted)
		records.GET("/:id", h.FindActive)
		records.DELETE("/:id", h.SoftDelete)
		records.DELETE("/:id/hard", h.HardDelete)
	}
}

func (h *Handler) FindActive(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.FindActive(c.Request.Context(), c.Param("entity"), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, rec)
}

// FindActivePage serves GET /admin/:entity?page=&page_size=&sort_field=&sort_dir=&<column>=<value>.
func (h *Handler) FindActivePage(c *gin.Context) {
	criteria := repository.Criteria{
		Filters: map[string]interface{}{},
		Sort:    model.SortOrder{Field: c.Query("sort_field"), Dir: c.Query("sort_dir")},
	}
	for key, values := range c.Request.URL.Query() {
		if reserved[key] || len(values) == 0 {
			continue
		}
		criteria.Filters[key] = values[0]
	}
	page, err := h.service.FindActivePage(c.Request.Context(), c.Param("entity"), criteria, handler.Pagination(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, page)
}

func (h *Handler) FindAllDeleted(c *gin.Context) {
	items, err := h.service.FindAllDeleted(c.Request.Context(), c.Param("entity"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, items)
}

// SoftDelete accepts an optional ?version= to delete only that version.
func (h *Handler) SoftDelete(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var version int64
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			handler.Fail(c, apperrors.BadRequest("version must be a positive integer", err))
			return
		}
		version = v
	}
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("entity"), id, version); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, gin.H{"id": id, "deleted": true})
}

func (h *Handler) HardDelete(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.HardDelete(c.Request.Context(), c.Param("entity"), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, gin.H{"id": id, "purged": true})
}
