package request

type ReservationRequest struct {
	TripID     string   `json:"trip_id" validate:"required,uuid"`
	ScheduleID string   `json:"schedule_id" validate:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,max=10,unique,dive,uuid"`
}

// BookingIDRequest is the body of retry-payment and cancel-trip.
type BookingIDRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}
