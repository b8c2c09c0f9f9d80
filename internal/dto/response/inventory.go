package response

import "transport-booking/internal/data/entity"

type InventoryResult struct {
	TripsCreated     int   `json:"trips_created"`
	SchedulesCreated int   `json:"schedules_created"`
	SeatsCreated     int   `json:"seats_created"`
	TripsDeleted     int64 `json:"trips_deleted"`
}

type SeatResponse struct {
	ID            string          `json:"id"`
	SeatNumber    string          `json:"seat_number"`
	SeatType      entity.SeatType `json:"seat_type"`
	ExtraFeeCents int64           `json:"extra_fee_cents"`
	Available     bool            `json:"available"`
}

type SeatMapResponse struct {
	TripID     string         `json:"trip_id,omitempty"`
	ScheduleID string         `json:"schedule_id,omitempty"`
	Total      int            `json:"total"`
	Available  int            `json:"available"`
	Seats      []SeatResponse `json:"seats"`
}

type VehicleCapacityResponse struct {
	VehicleID   string   `json:"vehicle_id"`
	SeatCount   int      `json:"seat_count"`
	SeatNumbers []string `json:"seat_numbers"`
}

// NewSeatMap marks every catalog seat whose id is in held as unavailable.
func NewSeatMap(seats []*entity.Seat, held map[string]bool) SeatMapResponse {
	out := SeatMapResponse{Seats: make([]SeatResponse, 0, len(seats))}
	for _, s := range seats {
		available := !held[s.ID.String()]
		if available {
			out.Available++
		}
		out.Seats = append(out.Seats, SeatResponse{
			ID:            s.ID.String(),
			SeatNumber:    s.SeatNumber,
			SeatType:      s.SeatType,
			ExtraFeeCents: s.ExtraFeeCents,
			Available:     available,
		})
	}
	out.Total = len(seats)
	return out
}
