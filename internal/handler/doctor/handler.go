package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/internal/service/scheduling"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	doctors    *doctor.Service
	scheduling *scheduling.Service
	visits     *visit.Service
}

func NewHandler(doctors *doctor.Service, scheduling *scheduling.Service, visits *visit.Service) *Handler {
	return &Handler{doctors: doctors, scheduling: scheduling, visits: visits}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", admin, h.CreateDoctor)
		doctors.GET("/:id", h.GetDoctor)
		doctors.GET("/:id/slots", h.ListAvailableSlots)
		doctors.GET("/:id/visits", h.ListVisits)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	d, err := h.doctors.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, d)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.doctors.GetDoctor(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, d)
}

// ListAvailableSlots serves GET /doctors/:id/slots?date=YYYY-MM-DD.
func (h *Handler) ListAvailableSlots(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	date, ok := handler.QueryDate(c, "date")
	if !ok {
		return
	}
	slots, err := h.scheduling.ListAvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, gin.H{"doctor_id": id, "date": date.Format(handler.DateLayout), "slots": slots})
}

// ListVisits shows a doctor's day. Doctors only see their own.
func (h *Handler) ListVisits(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	actor := handler.Actor(c)
	if !handler.IsStaff(actor) && !(actor.Role == model.RoleDoctor && actor.DoctorID == id) {
		handler.Fail(c, apperrors.Forbidden("only the doctor or staff may list these visits"))
		return
	}
	date, ok := handler.QueryDate(c, "date")
	if !ok {
		return
	}
	visits, err := h.visits.ListVisitsForDoctor(c.Request.Context(), id, date)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, visits)
}
