package adaptor

import (
	"context"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/dto/request"
	"transport-booking/internal/dto/response"
	"transport-booking/internal/payment"
	"transport-booking/internal/scheduler"
	"transport-booking/pkg/utils"

	"github.com/stretchr/testify/mock"
)

type mockReservationService struct{ mock.Mock }

func (m *mockReservationService) Reserve(ctx context.Context, principal utils.Principal, req *request.ReservationRequest) (*response.ReservationResponse, error) {
	args := m.Called(ctx, principal, req)
	resp, _ := args.Get(0).(*response.ReservationResponse)
	return resp, args.Error(1)
}

type mockBookingService struct{ mock.Mock }

func (m *mockBookingService) GetUserBookings(ctx context.Context, principal utils.Principal, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, principal, req)
	resp, _ := args.Get(0).(*response.PaginatedResponse[response.BookingResponse])
	return resp, args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, principal utils.Principal, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, principal, bookingID)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) Cancel(ctx context.Context, principal utils.Principal, bookingID string) (*response.CancelBookingResponse, error) {
	args := m.Called(ctx, principal, bookingID)
	resp, _ := args.Get(0).(*response.CancelBookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) ExpireStale(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingService) Ticket(ctx context.Context, principal utils.Principal, bookingID string) ([]byte, string, error) {
	args := m.Called(ctx, principal, bookingID)
	pdf, _ := args.Get(0).([]byte)
	return pdf, args.String(1), args.Error(2)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) CreateSession(ctx context.Context, booking *entity.Booking, email string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, booking, email)
	resp, _ := args.Get(0).(*payment.CheckoutSession)
	return resp, args.Error(1)
}

func (m *mockPaymentService) Retry(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.PaymentSessionResponse, error) {
	args := m.Called(ctx, principal, req)
	resp, _ := args.Get(0).(*response.PaymentSessionResponse)
	return resp, args.Error(1)
}

func (m *mockPaymentService) CancelAndRefund(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.CancelBookingResponse, error) {
	args := m.Called(ctx, principal, req)
	resp, _ := args.Get(0).(*response.CancelBookingResponse)
	return resp, args.Error(1)
}

func (m *mockPaymentService) GetPaymentStatus(ctx context.Context, principal utils.Principal, bookingID string) (*response.PaymentResponse, error) {
	args := m.Called(ctx, principal, bookingID)
	resp, _ := args.Get(0).(*response.PaymentResponse)
	return resp, args.Error(1)
}

type mockWebhookService struct{ mock.Mock }

func (m *mockWebhookService) Handle(ctx context.Context, signatureHeader string, payload []byte) (*response.WebhookAck, error) {
	args := m.Called(ctx, signatureHeader, payload)
	resp, _ := args.Get(0).(*response.WebhookAck)
	return resp, args.Error(1)
}

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) GenerateNow(ctx context.Context, daysAhead int) (*response.InventoryResult, error) {
	args := m.Called(ctx, daysAhead)
	resp, _ := args.Get(0).(*response.InventoryResult)
	return resp, args.Error(1)
}

func (m *mockScheduler) Start(name, spec string) error {
	return m.Called(name, spec).Error(0)
}

func (m *mockScheduler) Stop(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockScheduler) StopAll() {
	m.Called()
}

func (m *mockScheduler) Status() []scheduler.JobStatus {
	args := m.Called()
	status, _ := args.Get(0).([]scheduler.JobStatus)
	return status
}
