package diagnosis

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/diagnosis"
)

type Handler struct {
	service *diagnosis.Service
}

func NewHandler(service *diagnosis.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, editors gin.HandlerFunc) {
	diagnoses := r.Group("/diagnoses")
	diagnoses.POST("", editors, h.CreateDiagnosis)
	diagnoses.GET("/:id", h.GetDiagnosis)
}

func (h *Handler) CreateDiagnosis(c *gin.Context) {
	var req model.CreateDiagnosisRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	d, err := h.service.CreateDiagnosis(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, d)
}

func (h *Handler) GetDiagnosis(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.GetDiagnosis(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, d)
}
