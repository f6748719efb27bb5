package repository

import (
    "context"

    "github.com/google/uuid"
    "github.com/jmoiron/sqlx"

    "github.com/summit-hub/booking-api/internal/model"
)

// StationRepo reads and seeds the stations table.  Status changes go
// through AdminRepo so the audit row is written in the same transaction.
type StationRepo struct{ db *sqlx.DB }

func NewStationRepo(db *sqlx.DB) *StationRepo { return &StationRepo{db: db} }

const stationColumns = `id, number, status, created_at, updated_at`

// List returns every station ordered by number.
func (r *StationRepo) List(ctx context.Context) ([]model.Station, error) {
    out := []model.Station{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+stationColumns+` FROM stations ORDER BY number`)
    return out, err
}

// ListWithBookingCounts returns every station ordered by number along with
// the number of ACTIVE bookings it has on date.
func (r *StationRepo) ListWithBookingCounts(ctx context.Context, date model.Date) ([]model.StationSummary, error) {
    out := []model.StationSummary{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT s.id, s.number, s.status, s.created_at, s.updated_at,
               COUNT(b.id) AS today_bookings
        FROM stations s
        LEFT JOIN bookings b
               ON b.station_id = s.id AND b.booking_date = ? AND b.status = 'ACTIVE'
        GROUP BY s.id, s.number, s.status, s.created_at, s.updated_at
        ORDER BY s.number`, date)
    if err != nil {
        return nil, err
    }
    for i := range out {
        out[i].Name = model.StationName(out[i].Number)
        out[i].SeatCount = model.SeatCount(out[i].Number)
    }
    return out, nil
}

// GetByID fetches one station.
func (r *StationRepo) GetByID(ctx context.Context, id string) (*model.Station, error) {
    var s model.Station
    if err := r.db.GetContext(ctx, &s, `SELECT `+stationColumns+` FROM stations WHERE id = ?`, id); err != nil {
        return nil, notFound(err)
    }
    return &s, nil
}

// EnsureNumbers inserts an ACTIVE station for each number that has no row
// yet.  Existing rows are left untouched.  It returns how many were created.
func (r *StationRepo) EnsureNumbers(ctx context.Context, numbers []int) (int, error) {
    created := 0
    for _, n := range numbers {
        res, err := r.db.ExecContext(ctx,
            `INSERT IGNORE INTO stations (id, number, status) VALUES (?, ?, 'ACTIVE')`,
            uuid.NewString(), n)
        if err != nil {
            return created, err
        }
        if k, _ := res.RowsAffected(); k > 0 {
            created++
        }
    }
    return created, nil
}
