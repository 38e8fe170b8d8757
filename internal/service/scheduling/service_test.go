package scheduling

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/insurance"
	visitsvc "github.com/jwalitptl/clinic-api/internal/service/visit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// flakyVisits fails the first failures writes with a transient conflict.
type flakyVisits struct {
	repository.VisitRepository
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyVisits) CreateScheduled(ctx context.Context, v *model.Visit) error {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return repository.ErrTransient
	}
	return f.VisitRepository.CreateScheduled(ctx, v)
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []*model.Visit
	addrs []string
}

func (n *recordingNotifier) VisitBooked(_ context.Context, v *model.Visit, recipient string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, v)
	n.addrs = append(n.addrs, recipient)
}

type SchedulingSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	now      time.Time
	svc      *Service

	doctor    *model.Doctor
	patient   *model.Patient
	diagnosis *model.Diagnosis
	day       time.Time
}

func TestSchedulingSuite(t *testing.T) {
	suite.Run(t, new(SchedulingSuite))
}

func (s *SchedulingSuite) SetupTest() {
	s.ctx = model.WithActor(context.Background(), model.Actor{Subject: "patient-1", Role: model.RolePatient})
	s.store = memory.New()
	s.notifier = &recordingNotifier{}
	s.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	s.svc = s.newService(s.store.Visits)

	s.doctor = &model.Doctor{Name: "Dr Petrova", UIN: "0000000001", IsGP: true}
	s.Require().NoError(s.store.Doctors.Create(s.ctx, s.doctor))
	paid := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.patient = &model.Patient{EGN: "7602290011", Name: "Ivan Ivanov", Email: "ivan@example.com", GPID: s.doctor.ID, LastInsurancePayment: &paid}
	s.Require().NoError(s.store.Patients.Create(s.ctx, s.patient))
	s.diagnosis = &model.Diagnosis{Name: "J06.9"}
	s.Require().NoError(s.store.Diagnoses.Create(s.ctx, s.diagnosis))
}

func (s *SchedulingSuite) newService(visits repository.VisitRepository) *Service {
	return NewService(
		s.store.Patients, s.store.Doctors, s.store.Diagnoses, visits,
		insurance.NewGate(s.store.Patients),
		validator.New(), metrics.NewNop(), logger.Nop(),
		WithClock(func() time.Time { return s.now }),
		WithRetryBackoff(time.Millisecond),
		WithNotifier(s.notifier),
	)
}

func (s *SchedulingSuite) request(at model.SlotTime) *model.CreateVisitRequest {
	return &model.CreateVisitRequest{PatientID: s.patient.ID, DoctorID: s.doctor.ID, Date: s.day, Time: at}
}

func (s *SchedulingSuite) TestSlotsCoverBusinessHours() {
	slots := Slots()
	s.Len(slots, 18)
	s.Equal(model.NewSlotTime(8, 0), slots[0])
	s.Equal(model.NewSlotTime(16, 30), slots[len(slots)-1])
}

func (s *SchedulingSuite) TestCreateVisitAndListSlots() {
	diagnosisID := s.diagnosis.ID
	req := s.request(model.NewSlotTime(9, 30))
	req.DiagnosisID = &diagnosisID
	req.Notes = "follow-up"

	visit, err := s.svc.CreateVisit(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(model.VisitStatusScheduled, visit.Status)
	s.Equal(int64(1), visit.Version)
	s.Equal("patient-1", visit.CreatedBy)

	slots, err := s.svc.ListAvailableSlots(s.ctx, s.doctor.ID, s.day)
	s.Require().NoError(err)
	s.Len(slots, 18)
	for _, slot := range slots {
		s.Equal(slot.Time != model.NewSlotTime(9, 30), slot.Available, slot.Time.String())
	}

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(visit.ID, s.notifier.sent[0].ID)
	s.Equal("ivan@example.com", s.notifier.addrs[0])
}

func (s *SchedulingSuite) TestListSlotsUnknownDoctor() {
	_, err := s.svc.ListAvailableSlots(s.ctx, uuid.New(), s.day)
	s.True(apperrors.Is(err, apperrors.ErrNotFound))
}

func (s *SchedulingSuite) TestConcurrentBookingsExactlyOneWins() {
	const attempts = 32
	var (
		wg          sync.WaitGroup
		booked      atomic.Int32
		unavailable atomic.Int32
		other       atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(11, 0)))
			switch {
			case err == nil:
				booked.Add(1)
			case apperrors.Is(err, apperrors.ErrSlotUnavailable):
				unavailable.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), booked.Load())
	s.Equal(int32(attempts-1), unavailable.Load())
	s.Zero(other.Load())
	s.Len(s.notifier.sent, 1)
}

func (s *SchedulingSuite) TestCancelledSlotCanBeRebooked() {
	first, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(13, 0)))
	s.Require().NoError(err)

	_, err = s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(13, 0)))
	s.True(apperrors.Is(err, apperrors.ErrSlotUnavailable))

	visits := visitsvc.NewService(s.store.Visits, s.store.Diagnoses, validator.New(), metrics.NewNop(), logger.Nop())
	_, err = visits.CancelVisit(s.ctx, first.ID)
	s.Require().NoError(err)

	slots, err := s.svc.ListAvailableSlots(s.ctx, s.doctor.ID, s.day)
	s.Require().NoError(err)
	s.True(slots[10].Available, "13:00 is free again")

	_, err = s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(13, 0)))
	s.NoError(err)
}

func (s *SchedulingSuite) TestRejectsInvalidTimes() {
	tests := []struct {
		name string
		req  *model.CreateVisitRequest
	}{
		{"misaligned", s.request(model.NewSlotTime(9, 15))},
		{"before opening", s.request(model.NewSlotTime(7, 30))},
		{"at closing", s.request(model.NewSlotTime(17, 0))},
		{"in the past", &model.CreateVisitRequest{PatientID: s.patient.ID, DoctorID: s.doctor.ID, Date: s.now, Time: model.NewSlotTime(9, 30)}},
		{"missing date", &model.CreateVisitRequest{PatientID: s.patient.ID, DoctorID: s.doctor.ID, Time: model.NewSlotTime(9, 30)}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.CreateVisit(s.ctx, tt.req)
			s.True(apperrors.Is(err, apperrors.ErrBadRequest), "got %v", err)
		})
	}
	s.Empty(s.notifier.sent)
}

func (s *SchedulingSuite) TestReferencesMustBeActive() {
	req := s.request(model.NewSlotTime(9, 0))
	req.DoctorID = uuid.New()
	_, err := s.svc.CreateVisit(s.ctx, req)
	s.True(apperrors.Is(err, apperrors.ErrNotFound))

	missing := uuid.New()
	req = s.request(model.NewSlotTime(9, 0))
	req.DiagnosisID = &missing
	_, err = s.svc.CreateVisit(s.ctx, req)
	s.True(apperrors.Is(err, apperrors.ErrNotFound))

	s.Require().NoError(s.store.Patients.SoftDelete(s.ctx, s.patient.ID, s.patient.Version))
	_, err = s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 0)))
	s.True(apperrors.Is(err, apperrors.ErrNotFound))
}

func (s *SchedulingSuite) TestInsuranceGate() {
	lapsed := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	s.patient.LastInsurancePayment = &lapsed
	s.Require().NoError(s.store.Patients.Update(s.ctx, s.patient))

	_, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 0)))
	s.True(apperrors.Is(err, apperrors.ErrInsuranceInvalid))
	s.Equal(insurance.Message, err.Error())

	// Slot and hours are checked before insurance.
	_, err = s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 10)))
	s.True(apperrors.Is(err, apperrors.ErrBadRequest))
}

func (s *SchedulingSuite) TestTransientConflictsAreRetried() {
	flaky := &flakyVisits{VisitRepository: s.store.Visits}
	flaky.failures.Store(2)
	svc := s.newService(flaky)

	visit, err := svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(15, 0)))
	s.Require().NoError(err)
	s.Equal(int32(3), flaky.calls.Load())

	stored, err := s.store.Visits.FindActive(s.ctx, visit.ID)
	s.Require().NoError(err)
	s.Equal(model.NewSlotTime(15, 0), stored.Time)
}

func (s *SchedulingSuite) TestTransientRetriesAreBounded() {
	flaky := &flakyVisits{VisitRepository: s.store.Visits}
	flaky.failures.Store(100)
	svc := s.newService(flaky)

	_, err := svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(15, 30)))
	s.True(apperrors.Is(err, apperrors.ErrInternal))
	s.ErrorIs(err, repository.ErrTransient)
	s.Equal(int32(maxTransientRetries+1), flaky.calls.Load())
	s.Empty(s.notifier.sent)
}

func (s *SchedulingSuite) TestUpdateVisit() {
	visit, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 0)))
	s.Require().NoError(err)
	other, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(10, 0)))
	s.Require().NoError(err)

	notes := "bring lab results"
	updated, err := s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Notes: &notes, Version: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	// Moving onto a held slot.
	taken := other.Time
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Time: &taken, Version: 2})
	s.True(apperrors.Is(err, apperrors.ErrSlotUnavailable), "got %v", err)

	// Moving out of hours.
	late := model.NewSlotTime(18, 0)
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Time: &late, Version: 2})
	s.True(apperrors.Is(err, apperrors.ErrBadRequest))

	// Stale version.
	free := model.NewSlotTime(12, 30)
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Time: &free, Version: 1})
	s.True(apperrors.Is(err, apperrors.ErrConcurrentModification))

	moved, err := s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Time: &free, Version: 2})
	s.Require().NoError(err)
	s.Equal(free, moved.Time)
	s.Equal(int64(3), moved.Version)

	slots, err := s.svc.ListAvailableSlots(s.ctx, s.doctor.ID, s.day)
	s.Require().NoError(err)
	s.True(slots[2].Available, "09:00 released by the move")
}

func (s *SchedulingSuite) TestUpdateRechecksInsuranceOnlyWhenMoved() {
	visit, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 0)))
	s.Require().NoError(err)

	// Coverage ends on 2025-09-01 for a payment made on 2025-03-01.
	notes := "no move"
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Notes: &notes, Version: 1})
	s.Require().NoError(err)

	farDate := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Date: &farDate, Version: 2})
	s.True(apperrors.Is(err, apperrors.ErrInsuranceInvalid))

	okDate := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Date: &okDate, Version: 2})
	s.NoError(err)
}

func (s *SchedulingSuite) TestUpdateTerminalVisit() {
	visit, err := s.svc.CreateVisit(s.ctx, s.request(model.NewSlotTime(9, 0)))
	s.Require().NoError(err)
	visits := visitsvc.NewService(s.store.Visits, s.store.Diagnoses, validator.New(), metrics.NewNop(), logger.Nop())
	_, err = visits.CancelVisit(s.ctx, visit.ID)
	s.Require().NoError(err)

	notes := "too late"
	_, err = s.svc.UpdateVisit(s.ctx, visit.ID, &model.UpdateVisitRequest{Notes: &notes, Version: 2})
	s.True(apperrors.Is(err, apperrors.ErrInvalidTransition))
}
