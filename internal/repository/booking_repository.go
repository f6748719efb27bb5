package repository

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/jmoiron/sqlx"

    "github.com/summit-hub/booking-api/internal/model"
)

// BookingRepo provides access to bookings.  Creation happens only through
// WithStationLock so that the overlap check and the insert see a consistent
// view of the station's bookings.
type BookingRepo struct {
    db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingTx is the set of operations available while a station row is
// locked.  It is only valid inside the callback passed to WithStationLock.
type BookingTx interface {
    // Station is the locked station row.
    Station() model.Station
    // FindSeatConflict returns an ACTIVE booking of seat on date whose
    // window overlaps [start, end], or nil.
    FindSeatConflict(ctx context.Context, seat int, date model.Date, start, end model.Clock) (*model.Booking, error)
    // Insert stores b, assigning its id and timestamps.
    Insert(ctx context.Context, b *model.Booking) error
    // View loads a booking joined with station number and owner contact.
    View(ctx context.Context, id string) (*model.BookingView, error)
}

const bookingColumns = `b.id, b.user_id, b.station_id, b.seat_id, b.seat_number, b.booking_date,
    b.start_time, b.end_time, b.status, b.legal_id, b.full_name, b.cancel_reason,
    b.cancelled_at, b.created_at, b.updated_at`

const bookingViewColumns = bookingColumns + `, s.number AS station_number, u.name AS user_name, u.email AS user_email`

const bookingViewFrom = `FROM bookings b
    JOIN stations s ON s.id = b.station_id
    JOIN users u ON u.id = b.user_id`

// WithStationLock opens a transaction, takes SELECT ... FOR UPDATE on the
// station row and runs fn.  Concurrent callers for the same station queue on
// the row lock in MySQL, which also serialises separate processes.  The
// transaction commits when fn returns nil.
func (r *BookingRepo) WithStationLock(ctx context.Context, stationID string, fn func(BookingTx) error) error {
    return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
        var st model.Station
        err := tx.GetContext(ctx, &st,
            `SELECT `+stationColumns+` FROM stations WHERE id = ? FOR UPDATE`, stationID)
        if err != nil {
            if errors.Is(notFound(err), ErrNotFound) {
                return ErrStationNotFound
            }
            return err
        }
        return fn(&bookingTx{tx: tx, station: st})
    })
}

type bookingTx struct {
    tx      *sqlx.Tx
    station model.Station
}

func (t *bookingTx) Station() model.Station { return t.station }

func (t *bookingTx) FindSeatConflict(ctx context.Context, seat int, date model.Date, start, end model.Clock) (*model.Booking, error) {
    var b model.Booking
    // closed intervals: bookings that merely touch still conflict
    err := t.tx.GetContext(ctx, &b, `
        SELECT `+bookingColumns+`
        FROM bookings b
        WHERE b.station_id = ? AND b.seat_number = ? AND b.booking_date = ?
          AND b.status = 'ACTIVE' AND b.start_time <= ? AND b.end_time >= ?
        ORDER BY b.start_time
        LIMIT 1`, t.station.ID, seat, date, end, start)
    if err != nil {
        if errors.Is(notFound(err), ErrNotFound) {
            return nil, nil
        }
        return nil, err
    }
    return &b, nil
}

func (t *bookingTx) Insert(ctx context.Context, b *model.Booking) error {
    if b.ID == "" {
        b.ID = uuid.NewString()
    }
    if b.Status == "" {
        b.Status = model.BookingActive
    }
    _, err := t.tx.NamedExecContext(ctx, `
        INSERT INTO bookings (id, user_id, station_id, seat_id, seat_number, booking_date,
                              start_time, end_time, status, legal_id, full_name)
        VALUES (:id, :user_id, :station_id, :seat_id, :seat_number, :booking_date,
                :start_time, :end_time, :status, :legal_id, :full_name)`, b)
    if err != nil {
        return err
    }
    return t.tx.QueryRowxContext(ctx, `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
        Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (t *bookingTx) View(ctx context.Context, id string) (*model.BookingView, error) {
    return getView(ctx, t.tx, id)
}

func getView(ctx context.Context, q sqlx.QueryerContext, id string) (*model.BookingView, error) {
    var v model.BookingView
    if err := sqlx.GetContext(ctx, q, &v, `SELECT `+bookingViewColumns+` `+bookingViewFrom+` WHERE b.id = ?`, id); err != nil {
        return nil, notFound(err)
    }
    return &v, nil
}

// GetView loads one booking with station number and owner contact.
func (r *BookingRepo) GetView(ctx context.Context, id string) (*model.BookingView, error) {
    return getView(ctx, r.db, id)
}

// ListActiveByUser returns the caller's ACTIVE bookings ordered by date and
// start time.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, userID string) ([]model.BookingView, error) {
    out := []model.BookingView{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+bookingViewColumns+` `+bookingViewFrom+`
        WHERE b.user_id = ? AND b.status = 'ACTIVE'
        ORDER BY b.booking_date, b.start_time`, userID)
    return out, err
}

const bookingAdminColumns = bookingViewColumns + `, u.full_name AS user_full_name,
    u.legal_id AS user_legal_id, u.phone AS user_phone, u.company AS user_company`

// ListAll returns one page of every booking, newest first, with the total
// row count.
func (r *BookingRepo) ListAll(ctx context.Context, limit, offset int) ([]model.BookingAdminView, int, error) {
    var total int
    if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings`); err != nil {
        return nil, 0, err
    }
    out := []model.BookingAdminView{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+bookingAdminColumns+` `+bookingViewFrom+`
        ORDER BY b.created_at DESC, b.id
        LIMIT ? OFFSET ?`, limit, offset)
    return out, total, err
}

// ListForExport returns every booking for the CSV report, newest first.
func (r *BookingRepo) ListForExport(ctx context.Context) ([]model.BookingAdminView, error) {
    out := []model.BookingAdminView{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+bookingAdminColumns+` `+bookingViewFrom+`
        ORDER BY b.created_at DESC, b.id`)
    return out, err
}

// ListActiveOnDate returns the ACTIVE bookings dated date, with owner
// contact for reminders.
func (r *BookingRepo) ListActiveOnDate(ctx context.Context, date model.Date) ([]model.BookingView, error) {
    out := []model.BookingView{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+bookingViewColumns+` `+bookingViewFrom+`
        WHERE b.booking_date = ? AND b.status = 'ACTIVE'
        ORDER BY s.number, b.start_time`, date)
    return out, err
}

// ListActiveForStationDate returns the ACTIVE bookings of a station on date.
func (r *BookingRepo) ListActiveForStationDate(ctx context.Context, stationID string, date model.Date) ([]model.Booking, error) {
    out := []model.Booking{}
    err := r.db.SelectContext(ctx, &out, `SELECT `+bookingColumns+` FROM bookings b
        WHERE b.station_id = ? AND b.booking_date = ? AND b.status = 'ACTIVE'
        ORDER BY b.seat_number, b.start_time`, stationID, date)
    return out, err
}

// CancelOwned cancels the booking id if it belongs to userID.  A booking
// that is missing or owned by someone else yields ErrNotFound.  Cancelling a
// cancelled booking changes nothing and reports changed == false.
func (r *BookingRepo) CancelOwned(ctx context.Context, id, userID string) (b *model.Booking, changed bool, err error) {
    err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
        var cur model.Booking
        if err := tx.GetContext(ctx, &cur, `SELECT `+bookingColumns+` FROM bookings b
            WHERE b.id = ? AND b.user_id = ? FOR UPDATE`, id, userID); err != nil {
            return notFound(err)
        }
        if cur.Status == model.BookingActive {
            now := time.Now()
            if _, err := tx.ExecContext(ctx, `UPDATE bookings
                SET status = 'CANCELLED', cancelled_at = COALESCE(cancelled_at, ?)
                WHERE id = ?`, now, id); err != nil {
                return err
            }
            cur.Status = model.BookingCancelled
            cur.CancelledAt = &now
            changed = true
        }
        b = &cur
        return nil
    })
    if err != nil {
        return nil, false, err
    }
    return b, changed, nil
}
