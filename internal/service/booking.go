package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/queue"
	"github.com/summit-hub/booking-api/internal/repository"
)

// Opening hours.  A booking must start no earlier than OpensAt and end no
// later than ClosesAt.
var (
	OpensAt  = model.MustClock("08:00")
	ClosesAt = model.MustClock("18:00")
)

// BookingRequest is the client's input for a new booking.
type BookingRequest struct {
	StationID  string `json:"stationId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	SeatNumber *int   `json:"seatNumber"`
}

// BookingSlot is a BookingRequest that passed format and window checks.
type BookingSlot struct {
	StationID string
	Date      model.Date
	Start     model.Clock
	End       model.Clock
	Seat      *int
}

// ParseSlot checks everything about a request that needs no database:
// date and time formats, start before end and the opening hours.
func ParseSlot(stationID, date, start, end string, seat *int) (BookingSlot, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return BookingSlot{}, apperr.Validation("stationId is required")
	}
	d, err := model.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return BookingSlot{}, apperr.Validation("invalid date, expected YYYY-MM-DD")
	}
	s, err := model.ParseClock(strings.TrimSpace(start))
	if err != nil {
		return BookingSlot{}, apperr.Validation("invalid start time, expected HH:MM")
	}
	e, err := model.ParseClock(strings.TrimSpace(end))
	if err != nil {
		return BookingSlot{}, apperr.Validation("invalid end time, expected HH:MM")
	}
	if s >= e {
		return BookingSlot{}, apperr.Validation("start time must be before end time")
	}
	if s < OpensAt || e > ClosesAt {
		return BookingSlot{}, apperr.Validation(fmt.Sprintf("opening hours: %s to %s", OpensAt, ClosesAt))
	}
	return BookingSlot{StationID: stationID, Date: d, Start: s, End: e, Seat: seat}, nil
}

// Slot parses r.
func (r BookingRequest) Slot() (BookingSlot, error) {
	return ParseSlot(r.StationID, r.Date, r.StartTime, r.EndTime, r.SeatNumber)
}

// validateLocked checks a slot against the locked station and its
// bookings.  Seat-less bookings are never checked for conflicts.
func validateLocked(ctx context.Context, tx repository.BookingTx, slot BookingSlot) error {
	st := tx.Station()
	if st.Status != model.StationActive {
		return apperr.NotAvailable("station not available")
	}
	if slot.Seat == nil {
		return nil
	}
	seat := *slot.Seat
	if !model.ValidSeat(st.Number, seat) {
		return apperr.Validation(seatRangeMessage(st.Number))
	}
	conflict, err := tx.FindSeatConflict(ctx, seat, slot.Date, slot.Start, slot.End)
	if err != nil {
		return err
	}
	if conflict != nil {
		return apperr.Conflict(fmt.Sprintf("seat %d is already booked for this time", seat))
	}
	return nil
}

func seatRangeMessage(number int) string {
	n := model.SeatCount(number)
	if n == 0 {
		return fmt.Sprintf("station %d has no bookable seats", number)
	}
	return fmt.Sprintf("seat number must be between 1 and %d", n)
}

// BookingService creates, lists and cancels bookings for traders.
type BookingService struct {
	bookings BookingStore
	users    UserReader
	events   EventPublisher
	log      *log.Logger
	now      func() time.Time
}

func NewBookingService(b BookingStore, u UserReader, ev EventPublisher, logger *log.Logger) *BookingService {
	if ev == nil {
		ev = queue.Discard{}
	}
	return &BookingService{bookings: b, users: u, events: ev, log: logger, now: time.Now}
}

// Validate runs every booking check without writing anything.
func (s *BookingService) Validate(ctx context.Context, req BookingRequest) error {
	slot, err := req.Slot()
	if err != nil {
		return err
	}
	err = s.bookings.WithStationLock(ctx, slot.StationID, func(tx repository.BookingTx) error {
		return validateLocked(ctx, tx, slot)
	})
	return s.lockErr(err)
}

// Create validates and stores a booking for ownerID.  The check and the
// insert run under the station's row lock.
func (s *BookingService) Create(ctx context.Context, ownerID string, req BookingRequest) (*model.BookingView, error) {
	slot, err := req.Slot()
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	var view *model.BookingView
	err = s.bookings.WithStationLock(ctx, slot.StationID, func(tx repository.BookingTx) error {
		if err := validateLocked(ctx, tx, slot); err != nil {
			return err
		}
		st := tx.Station()
		b := &model.Booking{
			UserID:     owner.ID,
			StationID:  st.ID,
			SeatNumber: slot.Seat,
			Date:       slot.Date,
			StartTime:  slot.Start,
			EndTime:    slot.End,
			Status:     model.BookingActive,
			LegalID:    owner.LegalID,
			FullName:   owner.FullName,
		}
		if slot.Seat != nil {
			id := model.SeatID(st.Number, *slot.Seat)
			b.SeatID = &id
		}
		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		v, err := tx.View(ctx, b.ID)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, s.lockErr(err)
	}

	s.publish(queue.NewBookingEvent(queue.BookingCreated, *view, s.now()))
	return view, nil
}

func (s *BookingService) lockErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStationNotFound) {
		return apperr.NotAvailable("station not available")
	}
	return internal(err)
}

// ListMine returns the caller's ACTIVE bookings ordered by date and start.
func (s *BookingService) ListMine(ctx context.Context, userID string) ([]model.BookingView, error) {
	out, err := s.bookings.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListAll returns one page of every booking with owner contact data.
func (s *BookingService) ListAll(ctx context.Context, page, limit int) ([]model.BookingAdminView, model.Page, error) {
	page, limit, offset := pageWindow(page, limit)
	rows, total, err := s.bookings.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, model.Page{}, apperr.Internal(err)
	}
	return rows, model.NewPage(page, limit, total), nil
}

// Cancel cancels the caller's own booking.  Bookings that do not exist or
// belong to someone else are reported as not found.  Cancelling twice is
// not an error.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	b, changed, err := s.bookings.CancelOwned(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Internal(err)
	}
	if changed {
		s.publishCancelled(ctx, bookingID, "", "")
	}
	return b, nil
}

func (s *BookingService) publishCancelled(ctx context.Context, bookingID, reason, actorID string) {
	v, err := s.bookings.GetView(ctx, bookingID)
	if err != nil {
		s.log.Warnf("booking %s cancelled but not reloaded for event: %v", bookingID, err)
		return
	}
	ev := queue.NewBookingEvent(queue.BookingCancelled, *v, s.now())
	ev.Reason = reason
	ev.ActorID = actorID
	s.publish(ev)
}

func (s *BookingService) publish(ev queue.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warnf("publish %s for booking %s: %v", ev.Type, ev.BookingID, err)
	}
}
