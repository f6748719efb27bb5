// Package queue defines booking events and moves them over RabbitMQ.
package queue

import (
    "time"

    "github.com/summit-hub/booking-api/internal/model"
)

// Event types.
const (
    BookingCreated   = "booking.created"
    BookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is created or cancelled.  It
// carries enough for consumers to log and notify without querying the
// database.
type BookingEvent struct {
    Type          string `json:"type"`
    BookingID     string `json:"bookingId"`
    UserID        string `json:"userId"`
    UserName      string `json:"userName"`
    UserEmail     string `json:"userEmail"`
    StationID     string `json:"stationId"`
    StationNumber int    `json:"stationNumber"`
    SeatNumber    *int   `json:"seatNumber,omitempty"`
    Date          string `json:"date"`
    StartTime     string `json:"startTime"`
    EndTime       string `json:"endTime"`
    Reason        string `json:"reason,omitempty"`
    ActorID       string `json:"actorId,omitempty"`
    OccurredAt    string `json:"occurredAt"`
}

// NewBookingEvent builds an event of type typ from a joined booking row.
func NewBookingEvent(typ string, v model.BookingView, at time.Time) BookingEvent {
    return BookingEvent{
        Type:          typ,
        BookingID:     v.ID,
        UserID:        v.UserID,
        UserName:      v.UserName,
        UserEmail:     v.UserEmail,
        StationID:     v.StationID,
        StationNumber: v.StationNumber,
        SeatNumber:    v.SeatNumber,
        Date:          v.Date.String(),
        StartTime:     v.StartTime.String(),
        EndTime:       v.EndTime.String(),
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}

// View rebuilds the joined booking row an event was created from, for
// templating notifications.
func (e BookingEvent) View() model.BookingView {
    v := model.BookingView{StationNumber: e.StationNumber, UserName: e.UserName, UserEmail: e.UserEmail}
    v.ID = e.BookingID
    v.UserID = e.UserID
    v.StationID = e.StationID
    v.SeatNumber = e.SeatNumber
    v.Date, _ = model.ParseDate(e.Date)
    v.StartTime, _ = model.ParseClock(e.StartTime)
    v.EndTime, _ = model.ParseClock(e.EndTime)
    return v
}
