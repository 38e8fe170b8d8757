package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be authenticated already; staff guards the writes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, staff gin.HandlerFunc) {
	patients := r.Group("/patients")
	{
		patients.POST("", staff, h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id/insurance", staff, h.RecordInsurancePayment)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	p, err := h.service.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, p)
}

// GetPatient is open to staff, doctors and the patient themselves.
func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	actor := handler.Actor(c)
	if actor.Role == model.RolePatient && actor.PatientID != id {
		handler.Fail(c, apperrors.Forbidden("patients may only read their own record"))
		return
	}
	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) RecordInsurancePayment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.RecordInsurancePaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	p, err := h.service.RecordInsurancePayment(c.Request.Context(), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, p)
}
