package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/summit-hub/booking-api/internal/notify"
)

// ReminderResult counts the outcome of one reminder run.
type ReminderResult struct {
	Sent   int
	Failed int
}

// Reminder e-mails every trader with an ACTIVE booking tomorrow.
type Reminder struct {
	bookings BookingStore
	notifier notify.Notifier
	log      *log.Logger
	now      func() time.Time
}

func NewReminder(b BookingStore, n notify.Notifier, logger *log.Logger) *Reminder {
	return &Reminder{bookings: b, notifier: n, log: logger, now: time.Now}
}

// Run sends one reminder per booking dated tomorrow in the server's local
// zone.  A failed send is logged and counted; the batch continues.  Running
// twice sends twice.
func (r *Reminder) Run(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult
	tomorrow := dateIn(r.now(), 1)
	bookings, err := r.bookings.ListActiveOnDate(ctx, tomorrow)
	if err != nil {
		return res, err
	}
	for _, b := range bookings {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.notifier.Send(ctx, notify.ReminderMessage(b)); err != nil {
			res.Failed++
			r.log.Errorf("reminder for booking %s to %s failed: %v", b.ID, b.UserEmail, err)
			continue
		}
		res.Sent++
	}
	r.log.Infof("reminders for %s: sent=%d failed=%d", tomorrow, res.Sent, res.Failed)
	return res, nil
}
