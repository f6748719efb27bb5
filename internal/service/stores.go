// Package service implements booking rules on top of the repositories.
// Every method returns *apperr.Error values for expected failures and wraps
// anything else with apperr.Internal.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/queue"
	"github.com/summit-hub/booking-api/internal/repository"
)

// BookingStore is the booking persistence used by the services.
type BookingStore interface {
	WithStationLock(ctx context.Context, stationID string, fn func(repository.BookingTx) error) error
	GetView(ctx context.Context, id string) (*model.BookingView, error)
	ListActiveByUser(ctx context.Context, userID string) ([]model.BookingView, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.BookingAdminView, int, error)
	ListForExport(ctx context.Context) ([]model.BookingAdminView, error)
	ListActiveOnDate(ctx context.Context, date model.Date) ([]model.BookingView, error)
	ListActiveForStationDate(ctx context.Context, stationID string, date model.Date) ([]model.Booking, error)
	CancelOwned(ctx context.Context, id, userID string) (*model.Booking, bool, error)
}

// UserReader loads booking owners.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// StationStore reads stations.
type StationStore interface {
	List(ctx context.Context) ([]model.Station, error)
	ListWithBookingCounts(ctx context.Context, date model.Date) ([]model.StationSummary, error)
	GetByID(ctx context.Context, id string) (*model.Station, error)
}

// AdminStore performs audited administrative writes.
type AdminStore interface {
	CancelBooking(ctx context.Context, bookingID, reason string, action *model.AdminAction) (*model.Booking, error)
	SetStationStatus(ctx context.Context, stationID string, status model.StationStatus, action *model.AdminAction) (*model.Station, error)
	ListActions(ctx context.Context, limit, offset int) ([]model.AdminActionView, int, error)
}

// AnalyticsStore runs the dashboard counts.
type AnalyticsStore interface {
	StationOccupancy(ctx context.Context, from, to model.Date) ([]model.StationOccupancy, error)
	BookingsByPeriod(ctx context.Context, period model.Period, since model.Date) ([]model.PeriodCount, error)
	LiveOccupancy(ctx context.Context, date model.Date, at model.Clock) ([]model.LiveOccupancy, error)
	PeakHours(ctx context.Context, since model.Date) ([]model.HourCount, error)
}

// CachePurger drops cached responses that depend on station state.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// EventPublisher emits booking events.  Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// internal passes *apperr.Error through and wraps anything else.
func internal(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// pageWindow clamps page and limit and returns the SQL offset.
func pageWindow(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// publishTimeout bounds event publishing after the request's own work is
// done.
const publishTimeout = 3 * time.Second
