package visit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/scheduling"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	scheduling *scheduling.Service
	visits     *visit.Service
}

func NewHandler(scheduling *scheduling.Service, visits *visit.Service) *Handler {
	return &Handler{scheduling: scheduling, visits: visits}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.CreateVisit)
		visits.GET("/:id", h.GetVisit)
		visits.PUT("/:id", h.UpdateVisit)
		visits.POST("/:id/cancel", h.CancelVisit)
		visits.POST("/:id/document", h.DocumentVisit)
	}
}

// CreateVisit books a visit. Patients may only book for themselves.
func (h *Handler) CreateVisit(c *gin.Context) {
	var req model.CreateVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	actor := handler.Actor(c)
	if !handler.IsStaff(actor) && !(actor.Role == model.RolePatient && actor.PatientID == req.PatientID) {
		handler.Fail(c, apperrors.Forbidden("patients may only book visits for themselves"))
		return
	}
	v, err := h.scheduling.CreateVisit(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, v)
}

func (h *Handler) GetVisit(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	actor := handler.Actor(c)
	if !handler.IsStaff(actor) && !ownsAsPatient(actor, v) && !ownsAsDoctor(actor, v) {
		handler.Fail(c, apperrors.Forbidden("not a participant of this visit"))
		return
	}
	handler.OK(c, v)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	actor := handler.Actor(c)
	if !handler.IsStaff(actor) && !ownsAsPatient(actor, v) {
		handler.Fail(c, apperrors.Forbidden("only the patient or staff may change this visit"))
		return
	}
	var req model.UpdateVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	updated, err := h.scheduling.UpdateVisit(c.Request.Context(), v.ID, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, updated)
}

// CancelVisit is reserved to the patient who owns the visit.
func (h *Handler) CancelVisit(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	if !ownsAsPatient(handler.Actor(c), v) {
		handler.Fail(c, apperrors.Forbidden("only the patient of this visit may cancel it"))
		return
	}
	cancelled, err := h.visits.CancelVisit(c.Request.Context(), v.ID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, cancelled)
}

// DocumentVisit is reserved to the doctor who owns the visit.
func (h *Handler) DocumentVisit(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	if !ownsAsDoctor(handler.Actor(c), v) {
		handler.Fail(c, apperrors.Forbidden("only the doctor of this visit may document it"))
		return
	}
	var req model.DocumentVisitRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	documented, err := h.visits.DocumentVisit(c.Request.Context(), v.ID, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, documented)
}

func (h *Handler) load(c *gin.Context) (*model.Visit, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	v, err := h.visits.GetVisit(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return nil, false
	}
	return v, true
}

func ownsAsPatient(a model.Actor, v *model.Visit) bool {
	return a.Role == model.RolePatient && a.PatientID != uuid.Nil && a.PatientID == v.PatientID
}

func ownsAsDoctor(a model.Actor, v *model.Visit) bool {
	return a.Role == model.RoleDoctor && a.DoctorID != uuid.Nil && a.DoctorID == v.DoctorID
}
