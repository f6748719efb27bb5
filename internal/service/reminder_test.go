package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/summit-hub/booking-api/internal/logging"
)

func TestReminderContinuesAfterFailure(t *testing.T) {
	db, bookings, _ := newBookingFixture(t)
	db.addUser("u3", "Carla Dias", "carla@example.com")
	ctx := context.Background()
	for _, owner := range []string{"u1", "u2", "u3"} {
		if _, err := bookings.Create(ctx, owner, req("st-2", "09:00", "10:00", nil)); err != nil {
			t.Fatal(err)
		}
	}
	// a booking on another day is not reminded
	other := req("st-2", "09:00", "10:00", nil)
	other.Date = "2026-03-05"
	if _, err := bookings.Create(ctx, "u1", other); err != nil {
		t.Fatal(err)
	}
	cancelled, _ := bookings.Create(ctx, "u1", req("st-1", "11:00", "12:00", nil))
	if _, err := bookings.Cancel(ctx, "u1", cancelled.ID); err != nil {
		t.Fatal(err)
	}

	n := &flakyNotifier{fail: map[string]bool{"bruno@example.com": true}}
	r := NewReminder(db, n, logging.Discard())
	r.now = func() time.Time { return time.Date(2026, 3, 1, 18, 0, 0, 0, time.Local) }

	res, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 2 || res.Failed != 1 || n.tries != 3 {
		t.Errorf("result = %+v tries = %d", res, n.tries)
	}
	for _, m := range n.sent {
		if m.To == "bruno@example.com" {
			t.Errorf("failed recipient recorded as sent")
		}
	}

	// no de-duplication across runs
	res, _ = r.Run(ctx)
	if res.Sent+res.Failed != 3 {
		t.Errorf("second run = %+v", res)
	}
}

func TestReminderListFailure(t *testing.T) {
	db := newMemDB()
	db.failList = errors.New("db down")
	r := NewReminder(db, &flakyNotifier{}, logging.Discard())
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when bookings cannot be listed")
	}
}
