package service

import (
	"context"
	"testing"
	"time"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
)

func newStationFixture(t *testing.T) (*memDB, *BookingService, *StationService) {
	t.Helper()
	db, bookings, _ := newBookingFixture(t)
	svc := NewStationService(stationGetter{db}, db)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 30, 0, 0, time.Local) }
	return db, bookings, svc
}

func TestStationListCountsToday(t *testing.T) {
	_, bookings, svc := newStationFixture(t)
	ctx := context.Background()
	if _, err := bookings.Create(ctx, "u1", req("st-6", "09:00", "10:00", seat(1))); err != nil {
		t.Fatal(err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 6 || list[0].Number != 1 || list[5].Name != "Station 6 - Event Room" {
		t.Fatalf("list = %+v", list)
	}
	if list[5].TodayBookings != 1 || list[5].SeatCount != 17 {
		t.Errorf("station 6 = %+v", list[5])
	}
}

func TestSeatsWithWindow(t *testing.T) {
	_, bookings, svc := newStationFixture(t)
	ctx := context.Background()
	if _, err := bookings.Create(ctx, "u1", req("st-2", "09:00", "10:00", seat(1))); err != nil {
		t.Fatal(err)
	}

	day, err := svc.Seats(ctx, "st-2", SeatQuery{Date: "2026-03-02"})
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Seats) != 4 || day.Seats[0].Available || !day.Seats[1].Available {
		t.Errorf("whole-day seats = %+v", day.Seats)
	}

	later, err := svc.Seats(ctx, "st-2", SeatQuery{Date: "2026-03-02", StartTime: "10:30", EndTime: "11:00"})
	if err != nil {
		t.Fatal(err)
	}
	if !later.Seats[0].Available || len(later.Seats[0].Bookings) != 1 {
		t.Errorf("seat 1 outside booked window = %+v", later.Seats[0])
	}

	if _, err := svc.Seats(ctx, "st-2", SeatQuery{Date: "not-a-date"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad date: err = %v", err)
	}
	if _, err := svc.Seats(ctx, "missing", SeatQuery{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing station: err = %v", err)
	}
}

func TestCheckSeatUsesBookingPredicate(t *testing.T) {
	db, bookings, svc := newStationFixture(t)
	ctx := context.Background()
	if _, err := bookings.Create(ctx, "u1", req("st-3", "09:00", "10:00", seat(1))); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		start, end string
		available  bool
	}{
		{"09:30", "10:30", false},
		{"10:00", "11:00", false},
		{"10:01", "11:00", true},
	}
	for _, tt := range tests {
		got, err := svc.CheckSeat(ctx, "st-3", SeatCheckRequest{SeatNumber: 1, Date: "2026-03-02", StartTime: tt.start, EndTime: tt.end})
		if err != nil {
			t.Fatal(err)
		}
		if got.Available != tt.available {
			t.Errorf("%s-%s available = %v, want %v", tt.start, tt.end, got.Available, tt.available)
		}
		if !tt.available && len(got.Conflicts) != 1 {
			t.Errorf("%s-%s conflicts = %+v", tt.start, tt.end, got.Conflicts)
		}
	}

	if _, err := svc.CheckSeat(ctx, "st-3", SeatCheckRequest{SeatNumber: 2, Date: "2026-03-02", StartTime: "09:00", EndTime: "10:00"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("seat out of range: err = %v", err)
	}

	db.stations["st-3"].Status = model.StationMaintenance
	got, err := svc.CheckSeat(ctx, "st-3", SeatCheckRequest{SeatNumber: 1, Date: "2026-03-03", StartTime: "09:00", EndTime: "10:00"})
	if err != nil || got.Available {
		t.Errorf("maintenance station check = %+v, %v", got, err)
	}
}
