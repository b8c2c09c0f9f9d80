// Package ticket renders e-tickets for paid bookings.
package ticket

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

type Data struct {
	OrderRef      string
	PassengerName string
	Email         string
	DepartureCity string
	ArrivalCity   string
	Label         string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Vehicle       string
	Seats         []string
	AmountCents   int64
	Currency      string
	IssuedAt      time.Time
}

// Render returns the PDF bytes and a download filename.
func Render(d Data) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+d.OrderRef, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking     : " + d.OrderRef,
		"Passenger   : " + orDash(d.PassengerName),
		"Email       : " + orDash(d.Email),
		"Route       : " + d.DepartureCity + " -> " + d.ArrivalCity,
		"Departure   : " + d.DepartureTime.Format("2006-01-02 15:04") + " (" + d.Label + ")",
		"Arrival     : " + d.ArrivalTime.Format("2006-01-02 15:04"),
		"Vehicle     : " + orDash(d.Vehicle),
		"Seats       : " + strings.Join(d.Seats, ", "),
		"Total paid  : " + formatAmount(d.AmountCents, d.Currency),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf("Valid for %d passenger(s). Show this ticket at boarding. Issued %s.",
		len(d.Seats), d.IssuedAt.Format("2006-01-02 15:04")), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render ticket %s: %w", d.OrderRef, err)
	}

	return buf.Bytes(), "ticket-" + d.OrderRef + ".pdf", nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
