package model

import (
    "fmt"
    "time"
)

// StationStatus is the operational state of a station.
type StationStatus string

const (
    StationActive      StationStatus = "ACTIVE"
    StationMaintenance StationStatus = "MAINTENANCE"
)

// Valid reports whether s is a known station status.
func (s StationStatus) Valid() bool {
    return s == StationActive || s == StationMaintenance
}

// Station is a physical trading desk.  Number is the stable external
// identifier; the seat count for a number lives in the static seat table
// below rather than in the database.
//
// Fields:
//  ID        – UUID primary key.
//  Number    – unique station number.
//  Status    – ACTIVE or MAINTENANCE.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Station struct {
    ID        string        `db:"id" json:"id"`                // stations.id
    Number    int           `db:"number" json:"number"`        // stations.number
    Status    StationStatus `db:"status" json:"status"`        // stations.status
    CreatedAt time.Time     `db:"created_at" json:"createdAt"` // stations.created_at
    UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"` // stations.updated_at
}

// seatCounts maps a station number to its number of seats.
var seatCounts = map[int]int{
    1: 12,
    2: 4,
    3: 1,
    4: 1,
    5: 6,
    6: 17,
}

// DefaultStationNumbers lists the stations provisioned on an empty database.
var DefaultStationNumbers = []int{1, 2, 3, 4, 5, 6}

// SeatCount returns the number of seats of the station with the given
// number.  Unknown stations have no seats.
func SeatCount(number int) int { return seatCounts[number] }

// ValidSeat reports whether seat is a valid 1-based seat index for the
// station with the given number.
func ValidSeat(number, seat int) bool {
    return seat >= 1 && seat <= SeatCount(number)
}

// SeatID builds the display identifier of a seat, e.g. "3-1".
func SeatID(number, seat int) string {
    return fmt.Sprintf("%d-%d", number, seat)
}

// StationName returns the display name of a station.
func StationName(number int) string {
    if number == 6 {
        return "Station 6 - Event Room"
    }
    return fmt.Sprintf("Station %d", number)
}

// StationSummary is a station as listed to traders, with its seat count,
// display name and how many ACTIVE bookings it has on the queried date.
type StationSummary struct {
    Station
    Name          string `db:"-" json:"name"`
    SeatCount     int    `db:"-" json:"seatCount"`
    TodayBookings int    `db:"today_bookings" json:"todayBookings"`
}
