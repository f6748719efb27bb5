package repository

import (
    "context"
    "fmt"

    "github.com/jmoiron/sqlx"

    "github.com/summit-hub/booking-api/internal/model"
)

// AnalyticsRepo runs the plain GROUP BY counts behind the admin dashboard.
type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// StationOccupancy counts ACTIVE bookings per station dated within
// [from, to].  Stations without bookings report zero.
func (r *AnalyticsRepo) StationOccupancy(ctx context.Context, from, to model.Date) ([]model.StationOccupancy, error) {
    out := []model.StationOccupancy{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT s.number AS station_number, COUNT(b.id) AS bookings
        FROM stations s
        LEFT JOIN bookings b
               ON b.station_id = s.id AND b.status = 'ACTIVE'
              AND b.booking_date BETWEEN ? AND ?
        GROUP BY s.number
        ORDER BY s.number`, from, to)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].SeatCount = model.SeatCount(out[i].StationNumber)
    }
    return out, nil
}

var periodFormats = map[model.Period]string{
    model.PeriodDaily:   "%Y-%m-%d",
    model.PeriodWeekly:  "%x-W%v",
    model.PeriodMonthly: "%Y-%m",
}

// BookingsByPeriod counts bookings created since the given date, bucketed by
// day, ISO week or month.
func (r *AnalyticsRepo) BookingsByPeriod(ctx context.Context, period model.Period, since model.Date) ([]model.PeriodCount, error) {
    format, ok := periodFormats[period]
    if !ok {
        return nil, fmt.Errorf("unknown period %q", period)
    }
    out := []model.PeriodCount{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT DATE_FORMAT(created_at, ?) AS period, COUNT(*) AS bookings
        FROM bookings
        WHERE created_at >= ?
        GROUP BY period
        ORDER BY period`, format, since)
    return out, err
}

// LiveOccupancy counts, per station, the ACTIVE bookings dated date whose
// window contains at.
func (r *AnalyticsRepo) LiveOccupancy(ctx context.Context, date model.Date, at model.Clock) ([]model.LiveOccupancy, error) {
    out := []model.LiveOccupancy{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT s.number AS station_number, s.status, COUNT(b.id) AS occupied
        FROM stations s
        LEFT JOIN bookings b
               ON b.station_id = s.id AND b.status = 'ACTIVE' AND b.booking_date = ?
              AND b.start_time <= ? AND b.end_time > ?
        GROUP BY s.number, s.status
        ORDER BY s.number`, date, at, at)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].SeatCount = model.SeatCount(out[i].StationNumber)
    }
    return out, nil
}

// PeakHours counts ACTIVE bookings dated since the given date by start hour.
func (r *AnalyticsRepo) PeakHours(ctx context.Context, since model.Date) ([]model.HourCount, error) {
    out := []model.HourCount{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT CAST(LEFT(start_time, 2) AS UNSIGNED) AS hour, COUNT(*) AS bookings
        FROM bookings
        WHERE status = 'ACTIVE' AND booking_date >= ?
        GROUP BY hour
        ORDER BY hour`, since)
    return out, err
}
