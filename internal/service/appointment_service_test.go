package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/callwise/voice-scheduler/internal/crm"
	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/internal/events"
	"github.com/callwise/voice-scheduler/internal/repository"
	"github.com/callwise/voice-scheduler/internal/scheduling"
	"github.com/callwise/voice-scheduler/pkg/util"
)

// fakeTx satisfies pgx.Tx for the methods the services touch.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeAppointmentRepo struct {
	appointments map[string]*domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[string]*domain.Appointment)}
}

func (f *fakeAppointmentRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error {
	stored := *appt
	f.appointments[appt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, tx pgx.Tx, appt *domain.Appointment) error {
	if _, ok := f.appointments[appt.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *appt
	f.appointments[appt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeAppointmentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Appointment, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAppointmentRepo) ListWithFilter(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, appt := range f.appointments {
		if filter.CustomerID != nil && appt.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && appt.Status != *filter.Status {
			continue
		}
		out = append(out, *appt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeAppointmentRepo) ListOnDay(ctx context.Context, day time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, appt := range f.appointments {
		local := appt.StartTime
		if local.Year() == day.Year() && local.Month() == day.Month() && local.Day() == day.Day() {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListAroundForUpdate(ctx context.Context, tx pgx.Tx, start, end time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, appt := range f.appointments {
		if appt.Status == domain.AppointmentStatusCancelled {
			continue
		}
		if appt.StartTime.Before(end) && appt.EndTime().After(start) {
			out = append(out, *appt)
		}
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
}

func newFakeCustomerRepo(customers ...*domain.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{customers: make(map[string]*domain.Customer)}
	for _, c := range customers {
		repo.customers[c.ID] = c
	}
	return repo
}

func (f *fakeCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.customers[id]
	return ok, nil
}

type recordingCRM struct {
	createID string
	created  []crm.AppointmentData
	updated  []string
}

func (c *recordingCRM) Name() string { return "recording" }

func (c *recordingCRM) CreateAppointment(ctx context.Context, data crm.AppointmentData) (*crm.Record, error) {
	c.created = append(c.created, data)
	if c.createID == "" {
		return nil, nil
	}
	return &crm.Record{ID: c.createID}, nil
}

func (c *recordingCRM) UpdateAppointment(ctx context.Context, id string, data crm.AppointmentData) (*crm.Record, error) {
	c.updated = append(c.updated, id)
	return &crm.Record{ID: id}, nil
}

func domainErrorCode(err error) string {
	var derr *util.DomainError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return ""
}

var testCustomer = &domain.Customer{ID: "cust-1", Name: "Ada", Phone: "+15125550100"}

func newTestAppointmentService(repo *fakeAppointmentRepo, client crm.Client) *AppointmentService {
	return NewAppointmentService(AppointmentDependencies{
		AppointmentRepo: repo,
		CustomerRepo:    newFakeCustomerRepo(testCustomer),
		Dispatcher:      events.NewInMemoryDispatcher(),
		CRM:             client,
		Logger:          zap.NewNop(),
		Now:             func() time.Time { return time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC) },
	})
}

func chicago(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, scheduling.BusinessZone())
}

func TestCreateBooksConfirmedAppointment(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID:  "cust-1",
		ServiceType: "plumbing",
		StartTime:   chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if appt.Status != domain.AppointmentStatusConfirmed {
		t.Errorf("status = %s, want confirmed", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("duration = %d, want default 30", appt.DurationMinutes)
	}
	if _, ok := repo.appointments[appt.ID]; !ok {
		t.Error("appointment not persisted")
	}
}

func TestCreateUnknownCustomer(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)
	_, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "missing",
		StartTime:  chicago(16, 10, 0),
	})
	if domainErrorCode(err) != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", domainErrorCode(err))
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	_, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 15),
	})
	if domainErrorCode(err) != "CONFLICT" {
		t.Errorf("error code = %q, want CONFLICT", domainErrorCode(err))
	}
	if len(repo.appointments) != 1 {
		t.Errorf("conflicting booking persisted; %d appointments stored", len(repo.appointments))
	}
}

func TestCreateAllowsTouchingWindows(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 30),
	}); err != nil {
		t.Errorf("back-to-back booking rejected: %v", err)
	}
}

func TestCreateStoresCRMAppointmentID(t *testing.T) {
	repo := newFakeAppointmentRepo()
	client := &recordingCRM{createID: "crm-77"}
	svc := newTestAppointmentService(repo, client)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if len(client.created) != 1 {
		t.Fatalf("crm received %d create calls, want 1", len(client.created))
	}
	stored := repo.appointments[appt.ID]
	if stored.Metadata.CRMAppointmentID != "crm-77" {
		t.Errorf("stored crm_appointment_id = %q, want crm-77", stored.Metadata.CRMAppointmentID)
	}
}

func TestRescheduleAppendsHistory(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first := chicago(17, 14, 0)
	second := chicago(18, 9, 0)
	if _, err := svc.Reschedule(context.Background(), appt.ID, first, "customer request"); err != nil {
		t.Fatalf("first Reschedule returned error: %v", err)
	}
	updated, err := svc.Reschedule(context.Background(), appt.ID, second, "")
	if err != nil {
		t.Fatalf("second Reschedule returned error: %v", err)
	}

	history := updated.Metadata.RescheduleHistory
	if len(history) != 2 {
		t.Fatalf("reschedule history length = %d, want 2", len(history))
	}
	if !history[0].OldTime.Equal(chicago(16, 10, 0)) || !history[0].NewTime.Equal(first) {
		t.Errorf("first entry = %+v", history[0])
	}
	if !history[1].OldTime.Equal(first) || !history[1].NewTime.Equal(second) {
		t.Errorf("second entry = %+v", history[1])
	}
	if !updated.StartTime.Equal(second) {
		t.Errorf("start time = %v, want %v", updated.StartTime, second)
	}
	if !strings.Contains(updated.Notes, "Reason: customer request") {
		t.Errorf("notes missing reschedule annotation: %q", updated.Notes)
	}
}

func TestRescheduleConflictLeavesAppointmentUntouched(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(17, 14, 0),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.Reschedule(context.Background(), appt.ID, chicago(17, 14, 15), "")
	if domainErrorCode(err) != "CONFLICT" {
		t.Fatalf("error code = %q, want CONFLICT", domainErrorCode(err))
	}
	stored := repo.appointments[appt.ID]
	if !stored.StartTime.Equal(chicago(16, 10, 0)) {
		t.Errorf("start time moved despite conflict: %v", stored.StartTime)
	}
	if len(stored.Metadata.RescheduleHistory) != 0 {
		t.Errorf("history recorded despite conflict: %+v", stored.Metadata.RescheduleHistory)
	}
}

func TestRescheduleOntoOwnWindow(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), appt.ID, chicago(16, 10, 15), ""); err != nil {
		t.Errorf("shifting within own window rejected: %v", err)
	}
}

func TestCancelRecordsMetadataAndFreesSlot(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), appt.ID, "feeling better", true)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != domain.AppointmentStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.Metadata.Cancellation == nil || !cancelled.Metadata.Cancellation.RescheduleLater {
		t.Errorf("cancellation metadata = %+v", cancelled.Metadata.Cancellation)
	}
	if !strings.Contains(cancelled.Notes, "Cancelled: feeling better") {
		t.Errorf("notes missing cancellation annotation: %q", cancelled.Notes)
	}

	// The freed window is bookable again.
	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	}); err != nil {
		t.Errorf("slot still blocked after cancellation: %v", err)
	}
}

func TestSetStatusRecordsTransition(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), appt.ID, domain.AppointmentStatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	history := updated.Metadata.StatusHistory
	if len(history) != 1 {
		t.Fatalf("status history length = %d, want 1", len(history))
	}
	if history[0].OldStatus != domain.AppointmentStatusConfirmed || history[0].NewStatus != domain.AppointmentStatusCompleted {
		t.Errorf("transition = %+v, want confirmed -> completed", history[0])
	}
}

func TestUpdateStatusChangeAppendsHistory(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	completed := domain.AppointmentStatusCompleted
	updated, err := svc.Update(context.Background(), appt.ID, AppointmentUpdateInput{Status: &completed})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	history := updated.Metadata.StatusHistory
	if len(history) != 1 {
		t.Fatalf("status history length = %d, want 1", len(history))
	}
	if history[0].OldStatus != domain.AppointmentStatusConfirmed || history[0].NewStatus != completed {
		t.Errorf("transition = %+v, want confirmed -> completed", history[0])
	}

	// Re-submitting the same status is a no-op for the history.
	again, err := svc.Update(context.Background(), appt.ID, AppointmentUpdateInput{Status: &completed})
	if err != nil {
		t.Fatalf("second Update returned error: %v", err)
	}
	if len(again.Metadata.StatusHistory) != 1 {
		t.Errorf("status history length after no-op = %d, want 1", len(again.Metadata.StatusHistory))
	}
}

func TestRescheduleTwiceThenCancel(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	appt, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Reschedule(context.Background(), appt.ID, chicago(17, 14, 0), "conflict"); err != nil {
		t.Fatalf("first Reschedule returned error: %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), appt.ID, chicago(18, 9, 0), ""); err != nil {
		t.Fatalf("second Reschedule returned error: %v", err)
	}
	cancelled, err := svc.Cancel(context.Background(), appt.ID, "changed plans", false)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if cancelled.Status != domain.AppointmentStatusCancelled {
		t.Errorf("final status = %s, want cancelled", cancelled.Status)
	}
	if len(cancelled.Metadata.RescheduleHistory) != 2 {
		t.Errorf("reschedule history length = %d, want 2 after cancel", len(cancelled.Metadata.RescheduleHistory))
	}
	stored := repo.appointments[appt.ID]
	if len(stored.Metadata.RescheduleHistory) != 2 {
		t.Errorf("persisted reschedule history length = %d, want 2", len(stored.Metadata.RescheduleHistory))
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	svc := newTestAppointmentService(newFakeAppointmentRepo(), nil)
	_, err := svc.SetStatus(context.Background(), "any", "archived")
	if domainErrorCode(err) != "VALIDATION_FAILED" {
		t.Errorf("error code = %q, want VALIDATION_FAILED", domainErrorCode(err))
	}
}

func TestGetAvailabilityMarksBookedSlots(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestAppointmentService(repo, nil)

	if _, err := svc.Create(context.Background(), AppointmentCreateInput{
		CustomerID: "cust-1",
		StartTime:  chicago(16, 9, 0),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	slots, err := svc.GetAvailability(context.Background(), chicago(16, 0, 0), "")
	if err != nil {
		t.Fatalf("GetAvailability returned error: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("slot count = %d, want 16", len(slots))
	}
	if slots[0].Available {
		t.Error("first slot should be booked")
	}
	for _, slot := range slots[1:] {
		if !slot.Available {
			t.Errorf("slot %v unexpectedly booked", slot.StartTime)
		}
	}
}
