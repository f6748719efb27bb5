package repository

import (
    "context"
    "time"

    "github.com/google/uuid"
    "github.com/jmoiron/sqlx"

    "github.com/summit-hub/booking-api/internal/model"
)

// AdminRepo performs administrative writes.  Every write appends an
// admin_actions row inside the same transaction.
type AdminRepo struct{ db *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{db: db} }

func insertAction(ctx context.Context, tx *sqlx.Tx, a *model.AdminAction) error {
    if a.ID == "" {
        a.ID = uuid.NewString()
    }
    a.CreatedAt = time.Now()
    _, err := tx.NamedExecContext(ctx, `
        INSERT INTO admin_actions (id, user_id, action, target_id, reason, created_at)
        VALUES (:id, :user_id, :action, :target_id, :reason, :created_at)`, a)
    return err
}

// CancelBooking cancels any booking regardless of owner, recording reason on
// the booking and in the audit trail.  A missing booking yields ErrNotFound.
func (r *AdminRepo) CancelBooking(ctx context.Context, bookingID, reason string, action *model.AdminAction) (*model.Booking, error) {
    var out model.Booking
    err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
        if err := tx.GetContext(ctx, &out, `SELECT `+bookingColumns+` FROM bookings b
            WHERE b.id = ? FOR UPDATE`, bookingID); err != nil {
            return notFound(err)
        }
        now := time.Now()
        if _, err := tx.ExecContext(ctx, `UPDATE bookings
            SET status = 'CANCELLED', cancel_reason = ?, cancelled_at = COALESCE(cancelled_at, ?)
            WHERE id = ?`, reason, now, bookingID); err != nil {
            return err
        }
        if out.CancelledAt == nil {
            out.CancelledAt = &now
        }
        out.Status = model.BookingCancelled
        out.CancelReason = &reason

        action.Action = model.ActionCancelBooking
        action.TargetID = bookingID
        action.Reason = reason
        return insertAction(ctx, tx, action)
    })
    if err != nil {
        return nil, err
    }
    return &out, nil
}

// SetStationStatus changes a station's status and records the action.  A
// missing station yields ErrNotFound.  Bookings are not touched.
func (r *AdminRepo) SetStationStatus(ctx context.Context, stationID string, status model.StationStatus, action *model.AdminAction) (*model.Station, error) {
    var st model.Station
    err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
        if err := tx.GetContext(ctx, &st, `SELECT `+stationColumns+` FROM stations WHERE id = ? FOR UPDATE`, stationID); err != nil {
            return notFound(err)
        }
        if _, err := tx.ExecContext(ctx, `UPDATE stations SET status = ? WHERE id = ?`, status, stationID); err != nil {
            return err
        }
        st.Status = status
        st.UpdatedAt = time.Now()
        action.TargetID = stationID
        return insertAction(ctx, tx, action)
    })
    if err != nil {
        return nil, err
    }
    return &st, nil
}

// ListActions returns one page of the audit trail, newest first.
func (r *AdminRepo) ListActions(ctx context.Context, limit, offset int) ([]model.AdminActionView, int, error) {
    var total int
    if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM admin_actions`); err != nil {
        return nil, 0, err
    }
    out := []model.AdminActionView{}
    err := r.db.SelectContext(ctx, &out, `
        SELECT a.id, a.user_id, a.action, a.target_id, a.reason, a.created_at,
               u.name AS actor_name, u.email AS actor_email
        FROM admin_actions a
        JOIN users u ON u.id = a.user_id
        ORDER BY a.created_at DESC, a.id
        LIMIT ? OFFSET ?`, limit, offset)
    return out, total, err
}
