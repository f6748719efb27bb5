package model

// StationOccupancy counts ACTIVE bookings per station over a date range.
type StationOccupancy struct {
    StationNumber int `db:"station_number" json:"stationNumber"`
    SeatCount     int `db:"-" json:"seatCount"`
    Bookings      int `db:"bookings" json:"bookings"`
}

// PeriodCount is the number of bookings created in one bucket (a day, an
// ISO week or a month).
type PeriodCount struct {
    Period   string `db:"period" json:"period"`
    Bookings int    `db:"bookings" json:"bookings"`
}

// LiveOccupancy is the number of seats of a station occupied right now.
type LiveOccupancy struct {
    StationNumber int           `db:"station_number" json:"stationNumber"`
    Status        StationStatus `db:"status" json:"status"`
    SeatCount     int           `db:"-" json:"seatCount"`
    Occupied      int           `db:"occupied" json:"occupied"`
}

// HourCount is the number of bookings starting in a given hour.
type HourCount struct {
    Hour     int `db:"hour" json:"hour"`
    Bookings int `db:"bookings" json:"bookings"`
}

// Period is the bucket size for booking counts.
type Period string

const (
    PeriodDaily   Period = "daily"
    PeriodWeekly  Period = "weekly"
    PeriodMonthly Period = "monthly"
)

func (p Period) Valid() bool {
    return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}
