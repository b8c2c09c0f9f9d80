package usecase

import (
	"strconv"

	"transport-booking/internal/data/entity"

	"github.com/google/uuid"
)

// MaxSeatCapacity is the largest layout: two front seats plus rows B to Z of four.
const MaxSeatCapacity = 2 + 25*4

type SeatLabel struct {
	Number string
	Row    string
	Col    int
	Front  bool
}

// SeatLabels lays out capacity seats: 1A and 2A at the front, then 1B..4B, 1C..4C and so on
// up to row Z. Capacity is capped at MaxSeatCapacity. The result depends on capacity only.
func SeatLabels(capacity int) []SeatLabel {
	if capacity <= 0 {
		return nil
	}
	capacity = min(capacity, MaxSeatCapacity)

	labels := make([]SeatLabel, 0, capacity)
	for col := 1; col <= 2 && col <= capacity; col++ {
		labels = append(labels, SeatLabel{Number: strconv.Itoa(col) + "A", Row: "A", Col: col, Front: true})
	}

	row := 'B'
	for len(labels) < capacity {
		for col := 1; col <= 4 && len(labels) < capacity; col++ {
			r := string(row)
			labels = append(labels, SeatLabel{Number: strconv.Itoa(col) + r, Row: r, Col: col})
		}
		row++
	}

	return labels
}

// buildSeatCatalog turns the layout into seat rows owned by a schedule or a vehicle.
func buildSeatCatalog(capacity int, frontFeeCents int64, scheduleID, vehicleID *uuid.UUID) []*entity.Seat {
	labels := SeatLabels(capacity)
	seats := make([]*entity.Seat, len(labels))
	for i, l := range labels {
		seat := &entity.Seat{
			ID:         uuid.New(),
			ScheduleID: scheduleID,
			VehicleID:  vehicleID,
			SeatNumber: l.Number,
			SeatType:   entity.SeatTypeStandard,
			SeatRow:    l.Row,
			SeatCol:    l.Col,
		}
		if l.Front {
			seat.SeatType = entity.SeatTypeFront
			seat.ExtraFeeCents = frontFeeCents
		}
		seats[i] = seat
	}
	return seats
}
