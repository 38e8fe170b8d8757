// Package scheduling offers a doctor's free slots and books visits into them.
//
// Double booking is prevented by the store, not by a read before the write:
// VisitRepository.CreateScheduled fails with repository.ErrSlotTaken when the
// slot is already held, and that error is the only "slot taken" signal used.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/insurance"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// Business hours. The last bookable slot starts one SlotDuration before ClosingTime.
const (
	OpeningTime model.SlotTime = 8 * 60
	ClosingTime model.SlotTime = 17 * 60

	SlotDuration = 30 * time.Minute
)

const (
	maxTransientRetries = 3
	defaultRetryBackoff = 20 * time.Millisecond
)

const slotStep = model.SlotTime(SlotDuration / time.Minute)

// Notifier is told about every committed booking. Implementations must return
// promptly and must not report delivery failures back to the caller.
type Notifier interface {
	VisitBooked(ctx context.Context, visit *model.Visit, recipient string)
}

type nopNotifier struct{}

func (nopNotifier) VisitBooked(context.Context, *model.Visit, string) {}

type Option func(*Service)

// WithClock replaces time.Now; the clock decides what counts as the past.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetryBackoff sets the base delay between retries of a transient storage conflict.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) { s.backoff = d }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

type Service struct {
	patients  repository.PatientRepository
	doctors   repository.DoctorRepository
	diagnoses repository.DiagnosisRepository
	visits    repository.VisitRepository
	gate      *insurance.Gate
	notifier  Notifier
	validator validator.Validator
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
	backoff   time.Duration
}

func NewService(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	diagnoses repository.DiagnosisRepository,
	visits repository.VisitRepository,
	gate *insurance.Gate,
	v validator.Validator,
	m *metrics.Metrics,
	log *logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		patients:  patients,
		doctors:   doctors,
		diagnoses: diagnoses,
		visits:    visits,
		gate:      gate,
		notifier:  nopNotifier{},
		validator: v,
		metrics:   m,
		logger:    log,
		now:       time.Now,
		backoff:   defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Slots returns every bookable start time of a day in order.
func Slots() []model.SlotTime {
	slots := make([]model.SlotTime, 0, int((ClosingTime-OpeningTime)/slotStep))
	for t := OpeningTime; t+slotStep <= ClosingTime; t += slotStep {
		slots = append(slots, t)
	}
	return slots
}

// ListAvailableSlots marks each slot of the day unavailable when an active,
// non-cancelled visit of the doctor holds it.
func (s *Service) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.Slot, error) {
	if _, err := s.doctors.FindActive(ctx, doctorID); err != nil {
		return nil, service.StoreError("doctor", err)
	}
	visits, err := s.visits.ListActiveByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	s.metrics.SlotQueries.Inc()

	held := make(map[model.SlotTime]bool, len(visits))
	for _, v := range visits {
		if v.Status.HoldsSlot() {
			held[v.Time] = true
		}
	}

	slots := Slots()
	out := make([]model.Slot, 0, len(slots))
	for _, t := range slots {
		out = append(out, model.Slot{Time: t, Available: !held[t]})
	}
	return out, nil
}

// CreateVisit books a SCHEDULED visit. Among concurrent requests for one slot
// exactly one succeeds; the others get a SlotUnavailable error.
func (s *Service) CreateVisit(ctx context.Context, req *model.CreateVisitRequest) (visit *model.Visit, err error) {
	defer func() { s.metrics.Bookings.WithLabelValues(outcome(err)).Inc() }()

	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}

	patient, err := s.patients.FindActive(ctx, req.PatientID)
	if err != nil {
		return nil, service.StoreError("patient", err)
	}
	if _, err := s.doctors.FindActive(ctx, req.DoctorID); err != nil {
		return nil, service.StoreError("doctor", err)
	}
	if req.DiagnosisID != nil {
		if _, err := s.diagnoses.FindActive(ctx, *req.DiagnosisID); err != nil {
			return nil, service.StoreError("diagnosis", err)
		}
	}

	date := model.DateOf(req.Date)
	if err := s.checkSlot(date, req.Time); err != nil {
		return nil, err
	}
	if err := s.gate.Check(patient, date); err != nil {
		return nil, err
	}

	visit = &model.Visit{
		Date:        date,
		Time:        req.Time,
		PatientID:   patient.ID,
		DoctorID:    req.DoctorID,
		DiagnosisID: req.DiagnosisID,
		Status:      model.VisitStatusScheduled,
		Notes:       req.Notes,
	}
	err = s.retryTransient(ctx, func() error {
		return s.visits.CreateScheduled(ctx, visit)
	})
	if err != nil {
		return nil, service.StoreError("visit", err)
	}

	s.logger.Info("visit booked",
		"visit_id", visit.ID.String(),
		"doctor_id", visit.DoctorID.String(),
		"date", visit.Date.Format("2006-01-02"),
		"time", visit.Time.String(),
	)
	s.notifier.VisitBooked(ctx, visit.Clone(), patient.Email)
	return visit, nil
}

// UpdateVisit edits a SCHEDULED visit at req.Version. Moving it to another
// doctor, date or time re-runs the hours, insurance and slot checks.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}

	visit, err := s.visits.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	if visit.Status != model.VisitStatusScheduled {
		return nil, apperrors.InvalidTransition(string(visit.Status), string(model.VisitStatusScheduled))
	}

	moved := false
	if req.DoctorID != nil && *req.DoctorID != visit.DoctorID {
		if _, err := s.doctors.FindActive(ctx, *req.DoctorID); err != nil {
			return nil, service.StoreError("doctor", err)
		}
		visit.DoctorID = *req.DoctorID
		moved = true
	}
	if req.Date != nil && !model.DateOf(*req.Date).Equal(visit.Date) {
		visit.Date = model.DateOf(*req.Date)
		moved = true
	}
	if req.Time != nil && *req.Time != visit.Time {
		visit.Time = *req.Time
		moved = true
	}
	if req.DiagnosisID != nil {
		if _, err := s.diagnoses.FindActive(ctx, *req.DiagnosisID); err != nil {
			return nil, service.StoreError("diagnosis", err)
		}
		diagnosisID := *req.DiagnosisID
		visit.DiagnosisID = &diagnosisID
	}
	if req.Notes != nil {
		visit.Notes = *req.Notes
	}

	if moved {
		if err := s.checkSlot(visit.Date, visit.Time); err != nil {
			return nil, err
		}
		patient, err := s.patients.FindActive(ctx, visit.PatientID)
		if err != nil {
			return nil, service.StoreError("patient", err)
		}
		if err := s.gate.Check(patient, visit.Date); err != nil {
			return nil, err
		}
	}

	visit.Version = req.Version
	err = s.retryTransient(ctx, func() error {
		return s.visits.Update(ctx, visit)
	})
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	return visit, nil
}

// checkSlot rejects times that are misaligned, outside business hours or already past.
func (s *Service) checkSlot(date time.Time, at model.SlotTime) error {
	if (at-OpeningTime)%slotStep != 0 {
		return apperrors.BadRequest(fmt.Sprintf("visit time %s is not aligned to %s slots", at, SlotDuration), nil)
	}
	if at < OpeningTime || at+slotStep > ClosingTime {
		return apperrors.BadRequest(fmt.Sprintf("visit time %s is outside working hours %s-%s", at, OpeningTime, ClosingTime), nil)
	}
	if at.On(date).Before(s.now()) {
		return apperrors.BadRequest("visit cannot be booked in the past", nil)
	}
	return nil
}

// retryTransient re-runs op while the store reports a transient conflict
// (serialization failure or deadlock), up to maxTransientRetries times.
func (s *Service) retryTransient(ctx context.Context, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, repository.ErrTransient) || attempt > maxTransientRetries {
			return err
		}
		s.metrics.BookingRetries.Inc()
		s.logger.Warn("retrying visit write after transient conflict", "attempt", attempt, "error", err.Error())

		timer := time.NewTimer(s.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case apperrors.Is(err, apperrors.ErrSlotUnavailable):
		return metrics.OutcomeSlotUnavailable
	case apperrors.Is(err, apperrors.ErrInsuranceInvalid):
		return metrics.OutcomeInsuranceInvalid
	case apperrors.Is(err, apperrors.ErrInternal):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
