package notify

import (
	"fmt"

	"github.com/summit-hub/booking-api/internal/model"
)

// ReminderMessage is sent the evening before a booking.
func ReminderMessage(v model.BookingView) Message {
	return Message{
		To:      v.UserEmail,
		Subject: "Reminder: your Summit Hub booking tomorrow",
		Body: fmt.Sprintf("Hello %s,\n\nThis is a reminder of your booking tomorrow:\n\n%s\n\nSee you at Summit Hub.\n",
			v.UserName, describe(v)),
	}
}

// ConfirmationMessage is sent once a booking has been created.
func ConfirmationMessage(v model.BookingView) Message {
	return Message{
		To:      v.UserEmail,
		Subject: "Summit Hub booking confirmed",
		Body: fmt.Sprintf("Hello %s,\n\nYour booking is confirmed:\n\n%s\n\nYou can cancel it from your bookings page.\n",
			v.UserName, describe(v)),
	}
}

// CancellationMessage is sent when a booking is cancelled.
func CancellationMessage(v model.BookingView, reason string) Message {
	body := fmt.Sprintf("Hello %s,\n\nYour booking has been cancelled:\n\n%s\n", v.UserName, describe(v))
	if reason != "" {
		body += "\nReason: " + reason + "\n"
	}
	return Message{To: v.UserEmail, Subject: "Summit Hub booking cancelled", Body: body}
}

func describe(v model.BookingView) string {
	s := fmt.Sprintf("%s\nDate: %s\nTime: %s - %s", model.StationName(v.StationNumber), v.Date, v.StartTime, v.EndTime)
	if v.SeatNumber != nil {
		s += fmt.Sprintf("\nSeat: %d", *v.SeatNumber)
	}
	return s
}
