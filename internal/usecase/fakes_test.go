package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/notification"
	"transport-booking/internal/payment"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is an in-memory database shared by the fake repositories.
type store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[uuid.UUID]entity.User
	routes        map[uuid.UUID]entity.Route
	vehicles      map[uuid.UUID]entity.Vehicle
	templates     []entity.TripTemplate
	trips         map[uuid.UUID]entity.Trip
	schedules     map[uuid.UUID]entity.Schedule
	seats         map[uuid.UUID]entity.Seat
	bookings      map[uuid.UUID]entity.Booking
	bookingSeats  []entity.BookingSeat
	payments      map[uuid.UUID]entity.Payment
	refunds       map[string]entity.Refund
	webhookEvents map[string]entity.WebhookEvent

	// markRefundedErr fails Payment.MarkRefunded once.
	markRefundedErr error
	// beforeSeatInsert runs inside BookingSeat.CreateBatch, before the unique check.
	beforeSeatInsert func()
	// foreignSeats are rows committed by another session; a rollback keeps them.
	foreignSeats []entity.BookingSeat
}

func newStore() *store {
	return &store{
		users:         map[uuid.UUID]entity.User{},
		routes:        map[uuid.UUID]entity.Route{},
		vehicles:      map[uuid.UUID]entity.Vehicle{},
		trips:         map[uuid.UUID]entity.Trip{},
		schedules:     map[uuid.UUID]entity.Schedule{},
		seats:         map[uuid.UUID]entity.Seat{},
		bookings:      map[uuid.UUID]entity.Booking{},
		payments:      map[uuid.UUID]entity.Payment{},
		refunds:       map[string]entity.Refund{},
		webhookEvents: map[string]entity.WebhookEvent{},
	}
}

type snapshot struct {
	users         map[uuid.UUID]entity.User
	routes        map[uuid.UUID]entity.Route
	vehicles      map[uuid.UUID]entity.Vehicle
	templates     []entity.TripTemplate
	trips         map[uuid.UUID]entity.Trip
	schedules     map[uuid.UUID]entity.Schedule
	seats         map[uuid.UUID]entity.Seat
	bookings      map[uuid.UUID]entity.Booking
	bookingSeats  []entity.BookingSeat
	payments      map[uuid.UUID]entity.Payment
	refunds       map[string]entity.Refund
	webhookEvents map[string]entity.WebhookEvent
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		users:         maps.Clone(s.users),
		routes:        maps.Clone(s.routes),
		vehicles:      maps.Clone(s.vehicles),
		templates:     slices.Clone(s.templates),
		trips:         maps.Clone(s.trips),
		schedules:     maps.Clone(s.schedules),
		seats:         maps.Clone(s.seats),
		bookings:      maps.Clone(s.bookings),
		bookingSeats:  slices.Clone(s.bookingSeats),
		payments:      maps.Clone(s.payments),
		refunds:       maps.Clone(s.refunds),
		webhookEvents: maps.Clone(s.webhookEvents),
	}
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.routes = snap.routes
	s.vehicles = snap.vehicles
	s.templates = snap.templates
	s.trips = snap.trips
	s.schedules = snap.schedules
	s.seats = snap.seats
	s.bookings = snap.bookings
	s.bookingSeats = append(snap.bookingSeats, s.foreignSeats...)
	s.foreignSeats = nil
	s.payments = snap.payments
	s.refunds = snap.refunds
	s.webhookEvents = snap.webhookEvents
}

type inTxKey struct{}

// fakeTx runs transactions one at a time and rolls the store back on error.
type fakeTx struct {
	st *store
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	f.st.txMu.Lock()
	defer f.st.txMu.Unlock()

	snap := f.st.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		f.st.restore(snap)
		return err
	}
	return nil
}

func newFakeRepository(st *store) *repository.Repository {
	return &repository.Repository{
		User:         &fakeUserRepo{st},
		Route:        &fakeRouteRepo{st},
		Vehicle:      &fakeVehicleRepo{st},
		TripTemplate: &fakeTemplateRepo{st},
		Trip:         &fakeTripRepo{st},
		Schedule:     &fakeScheduleRepo{st},
		Seat:         &fakeSeatRepo{st},
		Booking:      &fakeBookingRepo{st},
		BookingSeat:  &fakeBookingSeatRepo{st},
		Payment:      &fakePaymentRepo{st},
		Refund:       &fakeRefundRepo{st},
		WebhookEvent: &fakeWebhookRepo{st},
	}
}

type fakeUserRepo struct{ st *store }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u, ok := r.st.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type fakeRouteRepo struct{ st *store }

func (r *fakeRouteRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Route, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if v, ok := r.st.routes[id]; ok {
		return &v, nil
	}
	return nil, nil
}

type fakeVehicleRepo struct{ st *store }

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if v, ok := r.st.vehicles[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (r *fakeVehicleRepo) UpdateSeatCount(_ context.Context, id uuid.UUID, seatCount int) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	v, ok := r.st.vehicles[id]
	if !ok {
		return fmt.Errorf("vehicle %s not found", id)
	}
	v.SeatCount = seatCount
	r.st.vehicles[id] = v
	return nil
}

type fakeTemplateRepo struct{ st *store }

func (r *fakeTemplateRepo) FindActive(context.Context) ([]*entity.TripTemplate, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.TripTemplate
	for _, t := range r.st.templates {
		if t.Active {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

type fakeTripRepo struct{ st *store }

func (r *fakeTripRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Trip, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if t, ok := r.st.trips[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *fakeTripRepo) CreateIfAbsent(_ context.Context, trip *entity.Trip) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, t := range r.st.trips {
		if t.RouteID == trip.RouteID && t.DepartureDate.Equal(trip.DepartureDate) {
			return false, nil
		}
	}
	r.st.trips[trip.ID] = *trip
	return true, nil
}

func (r *fakeTripRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var deleted int64
	for id, t := range r.st.trips {
		if !t.DepartureDate.Before(cutoff) {
			continue
		}
		keep := false
		for _, b := range r.st.bookings {
			if b.TripID == id && b.Status == entity.BookingStatusPaid {
				keep = true
			}
		}
		if keep {
			continue
		}
		delete(r.st.trips, id)
		deleted++
	}
	return deleted, nil
}

type fakeScheduleRepo struct{ st *store }

func (r *fakeScheduleRepo) Create(_ context.Context, s *entity.Schedule) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.schedules[s.ID] = *s
	return nil
}

func (r *fakeScheduleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Schedule, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if s, ok := r.st.schedules[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *fakeScheduleRepo) FindByTripID(_ context.Context, tripID uuid.UUID) ([]*entity.Schedule, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.Schedule
	for _, s := range r.st.schedules {
		if s.TripID == tripID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

type fakeSeatRepo struct{ st *store }

func (r *fakeSeatRepo) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range seats {
		r.st.seats[s.ID] = *s
	}
	return nil
}

func (r *fakeSeatRepo) FindBySchedule(_ context.Context, scheduleID uuid.UUID) ([]*entity.Seat, error) {
	return r.filter(func(s entity.Seat) bool { return s.ScheduleID != nil && *s.ScheduleID == scheduleID }), nil
}

func (r *fakeSeatRepo) FindByVehicle(_ context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error) {
	return r.filter(func(s entity.Seat) bool {
		return s.ScheduleID == nil && s.VehicleID != nil && *s.VehicleID == vehicleID
	}), nil
}

func (r *fakeSeatRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	return r.filter(func(s entity.Seat) bool { return slices.Contains(ids, s.ID) }), nil
}

func (r *fakeSeatRepo) DeleteByVehicle(_ context.Context, vehicleID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for id, s := range r.st.seats {
		if s.ScheduleID == nil && s.VehicleID != nil && *s.VehicleID == vehicleID {
			delete(r.st.seats, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSeatRepo) filter(keep func(entity.Seat) bool) []*entity.Seat {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.Seat
	for _, s := range r.st.seats {
		if keep(s) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatRow != out[j].SeatRow {
			return out[i].SeatRow < out[j].SeatRow
		}
		return out[i].SeatCol < out[j].SeatCol
	})
	return out
}

type fakeBookingRepo struct{ st *store }

func (r *fakeBookingRepo) Create(_ context.Context, b *entity.Booking) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.bookings[b.ID] = *b
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if b, ok := r.st.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var all []*entity.Booking
	for _, b := range r.st.bookings {
		if b.UserID == userID {
			b := b
			all = append(all, &b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BookedAt.After(all[j].BookedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (r *fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for _, b := range r.st.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	b, ok := r.st.bookings[id]
	if !ok || !slices.Contains(from, b.Status) {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	r.st.bookings[id] = b
	return true, nil
}

func (r *fakeBookingRepo) SetPaymentIntent(_ context.Context, id uuid.UUID, paymentIntentID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	b := r.st.bookings[id]
	b.PaymentIntentID = &paymentIntentID
	r.st.bookings[id] = b
	return nil
}

func (r *fakeBookingRepo) FindPendingBookedBefore(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var ids []uuid.UUID
	for _, b := range r.st.bookings {
		if b.Status == entity.BookingStatusPending && b.BookedAt.Before(cutoff) && len(ids) < limit {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

type fakeBookingSeatRepo struct{ st *store }

func (r *fakeBookingSeatRepo) CreateBatch(_ context.Context, rows []*entity.BookingSeat) error {
	if hook := r.st.beforeSeatInsert; hook != nil {
		r.st.beforeSeatInsert = nil
		hook()
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, row := range rows {
		for _, held := range r.st.bookingSeats {
			if held.ScheduleID == row.ScheduleID && held.SeatID == row.SeatID {
				return repository.ErrSeatAlreadyHeld
			}
		}
	}
	for _, row := range rows {
		r.st.bookingSeats = append(r.st.bookingSeats, *row)
	}
	return nil
}

func (r *fakeBookingSeatRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*entity.BookingSeat
	for _, row := range r.st.bookingSeats {
		if row.BookingID == bookingID {
			row := row
			out = append(out, &row)
		}
	}
	return out, nil
}

func (r *fakeBookingSeatRepo) FindHeldSeatIDs(_ context.Context, scheduleID uuid.UUID) ([]uuid.UUID, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var ids []uuid.UUID
	for _, row := range r.st.bookingSeats {
		if row.ScheduleID == scheduleID {
			ids = append(ids, row.SeatID)
		}
	}
	return ids, nil
}

func (r *fakeBookingSeatRepo) FindHeldSeatIDsByTrip(_ context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var ids []uuid.UUID
	for _, row := range r.st.bookingSeats {
		if s, ok := r.st.schedules[row.ScheduleID]; ok && s.TripID == tripID {
			ids = append(ids, row.SeatID)
		}
	}
	return ids, nil
}

func (r *fakeBookingSeatRepo) DeleteByBookingID(_ context.Context, bookingID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	kept := r.st.bookingSeats[:0:0]
	var n int64
	for _, row := range r.st.bookingSeats {
		if row.BookingID == bookingID {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.st.bookingSeats = kept
	return n, nil
}

type fakePaymentRepo struct{ st *store }

func (r *fakePaymentRepo) Upsert(_ context.Context, p *entity.Payment) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if existing, ok := r.st.payments[p.BookingID]; ok {
		existing.AmountCents = p.AmountCents
		existing.Currency = p.Currency
		existing.Status = p.Status
		if p.ProviderSessionID != nil {
			existing.ProviderSessionID = p.ProviderSessionID
		}
		if p.PaymentIntentID != nil {
			existing.PaymentIntentID = p.PaymentIntentID
		}
		if p.PaidAt != nil {
			existing.PaidAt = p.PaidAt
		}
		r.st.payments[p.BookingID] = existing
		p.ID = existing.ID
		return nil
	}
	r.st.payments[p.BookingID] = *p
	return nil
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if p, ok := r.st.payments[bookingID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*entity.Payment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, p := range r.st.payments {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == paymentIntentID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) MarkSucceeded(_ context.Context, bookingID uuid.UUID, paymentIntentID *string, paidAt time.Time) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.payments[bookingID]
	if !ok {
		return false, nil
	}
	p.Status = entity.PaymentStatusSucceeded
	if paymentIntentID != nil {
		p.PaymentIntentID = paymentIntentID
	}
	p.PaidAt = &paidAt
	r.st.payments[bookingID] = p
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(_ context.Context, bookingID uuid.UUID) error {
	return r.set(bookingID, entity.PaymentStatusFailed, nil)
}

func (r *fakePaymentRepo) MarkRefunded(_ context.Context, bookingID uuid.UUID, refundID string) error {
	r.st.mu.Lock()
	err := r.st.markRefundedErr
	r.st.markRefundedErr = nil
	r.st.mu.Unlock()
	if err != nil {
		return err
	}

	if refundID == "" {
		return r.set(bookingID, entity.PaymentStatusRefunded, nil)
	}
	return r.set(bookingID, entity.PaymentStatusRefunded, &refundID)
}

func (r *fakePaymentRepo) set(bookingID uuid.UUID, status entity.PaymentStatus, refundID *string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.payments[bookingID]
	if !ok {
		return nil
	}
	p.Status = status
	if refundID != nil {
		p.RefundID = refundID
	}
	r.st.payments[bookingID] = p
	return nil
}

type fakeRefundRepo struct{ st *store }

func (r *fakeRefundRepo) Create(_ context.Context, refund *entity.Refund) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.refunds[refund.PaymentIntentID]; ok {
		return false, nil
	}
	r.st.refunds[refund.PaymentIntentID] = *refund
	return true, nil
}

func (r *fakeRefundRepo) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*entity.Refund, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if refund, ok := r.st.refunds[paymentIntentID]; ok {
		return &refund, nil
	}
	return nil, nil
}

type fakeWebhookRepo struct{ st *store }

func (r *fakeWebhookRepo) Record(_ context.Context, e *entity.WebhookEvent) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.webhookEvents[e.EventID]; ok {
		return false, nil
	}
	r.st.webhookEvents[e.EventID] = *e
	return true, nil
}

// fakeProvider stands in for the payment provider.
type fakeProvider struct {
	mu         sync.Mutex
	sessions   []payment.CheckoutRequest
	expired    []string
	paid       map[string]bool // session ids the customer completed
	refunds    []string
	sessionErr error
	expireErr  error
	refundErr  error
	next       payment.Event
}

const validSignature = "t=1,v1=valid"

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	p.sessions = append(p.sessions, req)
	id := fmt.Sprintf("cs_test_%d", len(p.sessions))
	return &payment.CheckoutSession{
		ID:        id,
		URL:       "https://checkout.example.com/" + id,
		ExpiresAt: req.ExpiresAt,
	}, nil
}

func (p *fakeProvider) ExpireSession(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expireErr != nil {
		return p.expireErr
	}
	if p.paid[sessionID] {
		return fmt.Errorf("%w: %s", payment.ErrSessionCompleted, sessionID)
	}
	if !slices.Contains(p.expired, sessionID) {
		p.expired = append(p.expired, sessionID)
	}
	return nil
}

func (p *fakeProvider) markPaid(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paid == nil {
		p.paid = map[string]bool{}
	}
	p.paid[sessionID] = true
}

func (p *fakeProvider) expiredSessions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.expired)
}

func (p *fakeProvider) refunded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.refunds)
}

func (p *fakeProvider) Refund(_ context.Context, paymentIntentID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return "", p.refundErr
	}
	p.refunds = append(p.refunds, paymentIntentID)
	return "re_" + paymentIntentID, nil
}

func (p *fakeProvider) ParseEvent(_ []byte, signatureHeader string) (payment.Event, error) {
	if signatureHeader != validSignature {
		return nil, payment.ErrInvalidSignature
	}
	if p.next == nil {
		return nil, errors.New("no event queued")
	}
	return p.next, nil
}

func (p *fakeProvider) sessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

type fakeNotifier struct {
	mu     sync.Mutex
	emails []notification.Email
	events []notification.BookingEvent
}

func (n *fakeNotifier) SendEmail(_ context.Context, email notification.Email) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
}

func (n *fakeNotifier) PublishBookingEvent(_ context.Context, event notification.BookingEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) eventTypes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

// harness wires the real services over the in-memory store.
type harness struct {
	st       *store
	provider *fakeProvider
	notifier *fakeNotifier
	service  *Service
	config   *utils.Config
}

func testConfig() *utils.Config {
	return &utils.Config{
		Payment: utils.PaymentConfig{Currency: "eur", FrontendURL: "http://localhost:3000"},
		Scheduler: utils.SchedulerConfig{
			Timezone:          "UTC",
			DaysAhead:         30,
			FrontSeatFeeCents: 250,
		},
		Booking: utils.BookingConfig{PendingTTL: 30 * time.Minute},
	}
}

func newHarness() *harness {
	st := newStore()
	h := &harness{
		st:       st,
		provider: &fakeProvider{},
		notifier: &fakeNotifier{},
		config:   testConfig(),
	}
	h.service = NewService(newFakeRepository(st), &fakeTx{st: st}, h.provider, h.notifier, h.config, zap.NewNop())
	return h
}

type fixture struct {
	user     utils.Principal
	route    entity.Route
	vehicle  entity.Vehicle
	trip     entity.Trip
	schedule entity.Schedule
	seats    map[string]entity.Seat // by seat number
}

// seedSchedule creates a user, a trip priced tripPrice and one schedule with capacity seats.
func (h *harness) seedSchedule(capacity int, tripPrice, frontFee int64) fixture {
	st := h.st
	st.mu.Lock()
	defer st.mu.Unlock()

	user := entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Ada Rider", Email: "ada@example.com"}
	st.users[user.ID] = user

	route := entity.Route{ID: uuid.New(), DepartureCity: "Paris", ArrivalCity: "Lyon", BasePriceCents: tripPrice}
	st.routes[route.ID] = route

	vehicle := entity.Vehicle{ID: uuid.New(), Registration: "AB-123-CD", SeatCount: capacity}
	st.vehicles[vehicle.ID] = vehicle

	trip := entity.Trip{
		Base:          entity.Base{ID: uuid.New()},
		RouteID:       route.ID,
		VehicleID:     vehicle.ID,
		DepartureDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:        entity.TripStatusScheduled,
		PriceCents:    tripPrice,
	}
	st.trips[trip.ID] = trip

	departure := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	schedule := entity.Schedule{
		Base:          entity.Base{ID: uuid.New()},
		TripID:        trip.ID,
		Label:         "morning",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(4*time.Hour + 30*time.Minute),
		Status:        "available",
	}
	st.schedules[schedule.ID] = schedule

	seats := map[string]entity.Seat{}
	for _, seat := range buildSeatCatalog(capacity, frontFee, &schedule.ID, nil) {
		st.seats[seat.ID] = *seat
		seats[seat.SeatNumber] = *seat
	}

	return fixture{
		user:     utils.Principal{UserID: user.ID, Email: user.Email},
		route:    route,
		vehicle:  vehicle,
		trip:     trip,
		schedule: schedule,
		seats:    seats,
	}
}

func (f fixture) seatIDs(numbers ...string) []string {
	ids := make([]string, len(numbers))
	for i, n := range numbers {
		ids[i] = f.seats[n].ID.String()
	}
	return ids
}

func (f fixture) otherUser() utils.Principal {
	return utils.Principal{UserID: uuid.New(), Email: "other@example.com"}
}

func (h *harness) booking(id string) entity.Booking {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	return h.st.bookings[uuid.MustParse(id)]
}

func (h *harness) setBooking(b entity.Booking) {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	h.st.bookings[b.ID] = b
}

func (h *harness) heldBy(bookingID string) int {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	n := 0
	for _, row := range h.st.bookingSeats {
		if row.BookingID.String() == bookingID {
			n++
		}
	}
	return n
}

func (h *harness) seatCount(scheduleID uuid.UUID) int {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	n := 0
	for _, s := range h.st.seats {
		if s.ScheduleID != nil && *s.ScheduleID == scheduleID {
			n++
		}
	}
	return n
}

func (h *harness) paymentRows(bookingID string) int {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	n := 0
	for _, p := range h.st.payments {
		if p.BookingID.String() == bookingID {
			n++
		}
	}
	return n
}

func (h *harness) payment(bookingID string) entity.Payment {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	return h.st.payments[uuid.MustParse(bookingID)]
}

// currentSession is the checkout session recorded on the booking's payment row.
func (h *harness) currentSession(bookingID string) string {
	record := h.payment(bookingID)
	if record.ProviderSessionID == nil {
		return ""
	}
	return *record.ProviderSessionID
}

func (h *harness) refund(paymentIntentID string) (entity.Refund, bool) {
	h.st.mu.Lock()
	defer h.st.mu.Unlock()
	r, ok := h.st.refunds[paymentIntentID]
	return r, ok
}

func (f fixture) withUser(p utils.Principal) fixture {
	f.user = p
	return f
}
