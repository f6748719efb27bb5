package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/repository"
)

// StationService answers availability questions.
type StationService struct {
	stations StationStore
	bookings BookingStore
	now      func() time.Time
}

func NewStationService(st StationStore, b BookingStore) *StationService {
	return &StationService{stations: st, bookings: b, now: time.Now}
}

// List returns every station with today's ACTIVE booking count.
func (s *StationService) List(ctx context.Context) ([]model.StationSummary, error) {
	out, err := s.stations.ListWithBookingCounts(ctx, model.DateOf(s.now()))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Stations returns the bare station rows ordered by number.
func (s *StationService) Stations(ctx context.Context) ([]model.Station, error) {
	out, err := s.stations.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// SeatAvailability is one seat of a station on a given day.
type SeatAvailability struct {
	SeatNumber int             `json:"seatNumber"`
	SeatID     string          `json:"seatId"`
	Available  bool            `json:"available"`
	Bookings   []model.Booking `json:"bookings"`
}

// StationSeats is the seat map of a station on a day.
type StationSeats struct {
	Station model.Station      `json:"station"`
	Name    string             `json:"name"`
	Date    model.Date         `json:"date"`
	Seats   []SeatAvailability `json:"seats"`
}

// SeatQuery selects a day and optionally a window.  An empty date means
// today; without both times a seat is available only if it has no booking
// that day.
type SeatQuery struct {
	Date      string
	StartTime string
	EndTime   string
}

// Seats lists every seat of a station with its bookings on the day.
func (s *StationService) Seats(ctx context.Context, stationID string, q SeatQuery) (*StationSeats, error) {
	st, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	date := model.DateOf(s.now())
	if strings.TrimSpace(q.Date) != "" {
		if date, err = model.ParseDate(strings.TrimSpace(q.Date)); err != nil {
			return nil, apperr.Validation("invalid date, expected YYYY-MM-DD")
		}
	}
	var window *BookingSlot
	if q.StartTime != "" || q.EndTime != "" {
		slot, err := ParseSlot(stationID, date.String(), q.StartTime, q.EndTime, nil)
		if err != nil {
			return nil, err
		}
		window = &slot
	}

	booked, err := s.bookings.ListActiveForStationDate(ctx, st.ID, date)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	bySeat := map[int][]model.Booking{}
	for _, b := range booked {
		if b.SeatNumber != nil {
			bySeat[*b.SeatNumber] = append(bySeat[*b.SeatNumber], b)
		}
	}

	out := &StationSeats{Station: *st, Name: model.StationName(st.Number), Date: date}
	for n := 1; n <= model.SeatCount(st.Number); n++ {
		seat := SeatAvailability{SeatNumber: n, SeatID: model.SeatID(st.Number, n), Bookings: bySeat[n]}
		if seat.Bookings == nil {
			seat.Bookings = []model.Booking{}
		}
		seat.Available = st.Status == model.StationActive
		if seat.Available {
			if window != nil {
				seat.Available = len(overlapping(seat.Bookings, window.Start, window.End)) == 0
			} else {
				seat.Available = len(seat.Bookings) == 0
			}
		}
		out.Seats = append(out.Seats, seat)
	}
	return out, nil
}

// SeatCheckRequest asks whether one seat is free in a window.
type SeatCheckRequest struct {
	SeatNumber int    `json:"seatNumber"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// SeatCheck is the answer to a SeatCheckRequest.
type SeatCheck struct {
	Available bool            `json:"available"`
	Conflicts []model.Booking `json:"conflicts"`
}

// CheckSeat applies the booking overlap rule to one seat without locking.
func (s *StationService) CheckSeat(ctx context.Context, stationID string, req SeatCheckRequest) (*SeatCheck, error) {
	seat := req.SeatNumber
	slot, err := ParseSlot(stationID, req.Date, req.StartTime, req.EndTime, &seat)
	if err != nil {
		return nil, err
	}
	st, err := s.station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !model.ValidSeat(st.Number, seat) {
		return nil, apperr.Validation(seatRangeMessage(st.Number))
	}
	booked, err := s.bookings.ListActiveForStationDate(ctx, st.ID, slot.Date)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var sameSeat []model.Booking
	for _, b := range booked {
		if b.SeatNumber != nil && *b.SeatNumber == seat {
			sameSeat = append(sameSeat, b)
		}
	}
	conflicts := overlapping(sameSeat, slot.Start, slot.End)
	return &SeatCheck{
		Available: st.Status == model.StationActive && len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *StationService) station(ctx context.Context, id string) (*model.Station, error) {
	st, err := s.stations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("station not found")
		}
		return nil, apperr.Internal(err)
	}
	return st, nil
}

// overlapping returns the bookings whose window overlaps [start, end].
func overlapping(bookings []model.Booking, start, end model.Clock) []model.Booking {
	out := []model.Booking{}
	for _, b := range bookings {
		if b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out
}
