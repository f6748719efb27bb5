package model

import "time"

// BookingStatus is the lifecycle state of a booking.  The only transition
// is ACTIVE -> CANCELLED.
type BookingStatus string

const (
    BookingActive    BookingStatus = "ACTIVE"
    BookingCancelled BookingStatus = "CANCELLED"
)

// Booking reserves one station, optionally one seat within it, for a
// date and a start/end time of day.  FullName and LegalID are copies of
// the owner's identity taken when the booking was created so that the
// historical record survives later profile edits.
//
// Fields:
//  ID           – UUID primary key.
//  UserID       – owner of the booking.
//  StationID    – booked station.
//  SeatID       – display seat id "<station number>-<seat>", nil without a seat.
//  SeatNumber   – seat index within the station, nil for whole-station bookings.
//  Date         – calendar day of the booking.
//  StartTime    – start time of day.
//  EndTime      – end time of day.
//  Status       – ACTIVE or CANCELLED.
//  LegalID      – owner legal id snapshot.
//  FullName     – owner full name snapshot.
//  CancelReason – reason recorded by an administrator, if any.
//  CancelledAt  – when the booking was cancelled.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Booking struct {
    ID           string        `db:"id" json:"id"`                      // bookings.id
    UserID       string        `db:"user_id" json:"userId"`             // bookings.user_id
    StationID    string        `db:"station_id" json:"stationId"`       // bookings.station_id
    SeatID       *string       `db:"seat_id" json:"seatId"`             // bookings.seat_id (nullable)
    SeatNumber   *int          `db:"seat_number" json:"seatNumber"`     // bookings.seat_number (nullable)
    Date         Date          `db:"booking_date" json:"date"`          // bookings.booking_date
    StartTime    Clock         `db:"start_time" json:"startTime"`       // bookings.start_time
    EndTime      Clock         `db:"end_time" json:"endTime"`           // bookings.end_time
    Status       BookingStatus `db:"status" json:"status"`              // bookings.status
    LegalID      string        `db:"legal_id" json:"legalId"`           // bookings.legal_id
    FullName     string        `db:"full_name" json:"fullName"`         // bookings.full_name
    CancelReason *string       `db:"cancel_reason" json:"cancelReason"` // bookings.cancel_reason (nullable)
    CancelledAt  *time.Time    `db:"cancelled_at" json:"cancelledAt"`   // bookings.cancelled_at (nullable)
    CreatedAt    time.Time     `db:"created_at" json:"createdAt"`       // bookings.created_at
    UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`       // bookings.updated_at
}

// Overlaps reports whether the booking's time range collides with
// [start, end].  Both ranges are treated as closed intervals, so a booking
// ending at 10:00 collides with one starting at 10:00.
func (b Booking) Overlaps(start, end Clock) bool {
    return Overlaps(b.StartTime, b.EndTime, start, end)
}

// Overlaps is the conflict predicate shared by the validator and the SQL
// conflict query: existing.start <= new.end AND existing.end >= new.start.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
    return aStart <= bEnd && aEnd >= bStart
}

// BookingView is a booking joined with the fields needed to display it:
// the station number and the owner's name and email.
type BookingView struct {
    Booking
    StationNumber int    `db:"station_number" json:"stationNumber"`
    UserName      string `db:"user_name" json:"userName"`
    UserEmail     string `db:"user_email" json:"userEmail"`
}

// BookingAdminView adds the owner's contact data for administrative
// listings and reports.
type BookingAdminView struct {
    BookingView
    UserFullName string `db:"user_full_name" json:"userFullName"`
    UserLegalID  string `db:"user_legal_id" json:"userLegalId"`
    UserPhone    string `db:"user_phone" json:"userPhone"`
    UserCompany  string `db:"user_company" json:"userCompany"`
}
