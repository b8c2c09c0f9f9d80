package notification

import (
	"fmt"
	"strings"
)

func BookingConfirmedEmail(to, orderRef string, amountCents int64, currency string, seats []string) Email {
	return Email{
		To:       to,
		Subject:  "Your booking " + orderRef + " is confirmed",
		Template: "booking_confirmed",
		Data: map[string]string{
			"order_ref": orderRef,
			"amount":    FormatAmount(amountCents, currency),
			"seats":     strings.Join(seats, ", "),
		},
	}
}

func BookingCancelledEmail(to, orderRef string, refunded bool) Email {
	return Email{
		To:       to,
		Subject:  "Your booking " + orderRef + " was cancelled",
		Template: "booking_cancelled",
		Data: map[string]string{
			"order_ref": orderRef,
			"refunded":  fmt.Sprint(refunded),
		},
	}
}

// FormatAmount renders minor units, e.g. 2550 eur as "25.50 EUR".
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}
