package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/summit-hub/booking-api/internal/apperr"
	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/report"
	"github.com/summit-hub/booking-api/internal/repository"
)

// Default reasons recorded when an administrator gives none.
const (
	DefaultCancelReason   = "Cancelled by administrator"
	DefaultActivateReason = "Station activated"
	DefaultBlockReason    = "Station blocked"
)

// AdminService holds the audited administrative operations.
type AdminService struct {
	admin     AdminStore
	bookings  *BookingService
	analytics AnalyticsStore
	stations  CachePurger
	log       *log.Logger
	now       func() time.Time
}

func NewAdminService(a AdminStore, b *BookingService, an AnalyticsStore, logger *log.Logger) *AdminService {
	return &AdminService{admin: a, bookings: b, analytics: an, log: logger, now: time.Now}
}

// WithStationCache makes SetStationStatus purge p after every change.
func (s *AdminService) WithStationCache(p CachePurger) *AdminService {
	s.stations = p
	return s
}

// CancelBooking cancels any booking, recording reason and the audit row in
// one transaction.
func (s *AdminService) CancelBooking(ctx context.Context, actorID, bookingID, reason string) (*model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	b, err := s.admin.CancelBooking(ctx, bookingID, reason, &model.AdminAction{UserID: actorID})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Internal(err)
	}
	s.log.Infof("admin %s cancelled booking %s: %s", actorID, bookingID, reason)
	s.bookings.publishCancelled(ctx, bookingID, reason, actorID)
	return b, nil
}

// SetStationStatus activates or blocks a station.  Existing bookings are
// left as they are.
func (s *AdminService) SetStationStatus(ctx context.Context, actorID, stationID, status, reason string) (*model.Station, error) {
	st := model.StationStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, apperr.Validation("status must be ACTIVE or MAINTENANCE")
	}
	action := &model.AdminAction{UserID: actorID, Action: model.ActionActivateStation}
	defaultReason := DefaultActivateReason
	if st == model.StationMaintenance {
		action.Action = model.ActionBlockStation
		defaultReason = DefaultBlockReason
	}
	action.Reason = strings.TrimSpace(reason)
	if action.Reason == "" {
		action.Reason = defaultReason
	}
	out, err := s.admin.SetStationStatus(ctx, stationID, st, action)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("station not found")
		}
		return nil, apperr.Internal(err)
	}
	s.log.Infof("admin %s set station %d to %s: %s", actorID, out.Number, st, action.Reason)
	if s.stations != nil {
		if err := s.stations.Purge(ctx); err != nil {
			s.log.Warnf("purge station cache: %v", err)
		}
	}
	return out, nil
}

// ListActions returns one page of the audit trail, newest first.
func (s *AdminService) ListActions(ctx context.Context, page, limit int) ([]model.AdminActionView, model.Page, error) {
	page, limit, offset := pageWindow(page, limit)
	rows, total, err := s.admin.ListActions(ctx, limit, offset)
	if err != nil {
		return nil, model.Page{}, apperr.Internal(err)
	}
	return rows, model.NewPage(page, limit, total), nil
}

// ExportCSV writes every booking as CSV to w.
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.bookings.bookings.ListForExport(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := report.WriteBookings(w, rows); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 366
)

func clampDays(days, def int) int {
	if days <= 0 {
		return def
	}
	if days > maxAnalyticsDays {
		return maxAnalyticsDays
	}
	return days
}

// StationOccupancy counts ACTIVE bookings per station over the last days
// days, today included.
func (s *AdminService) StationOccupancy(ctx context.Context, days int) ([]model.StationOccupancy, error) {
	days = clampDays(days, defaultAnalyticsDays)
	today := model.DateOf(s.now())
	out, err := s.analytics.StationOccupancy(ctx, today.AddDays(1-days), today)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// BookingsByPeriod counts bookings created over the last days days.
func (s *AdminService) BookingsByPeriod(ctx context.Context, period string, days int) ([]model.PeriodCount, error) {
	p := model.Period(strings.ToLower(strings.TrimSpace(period)))
	if p == "" {
		p = model.PeriodDaily
	}
	if !p.Valid() {
		return nil, apperr.Validation("period must be daily, weekly or monthly")
	}
	days = clampDays(days, 7)
	out, err := s.analytics.BookingsByPeriod(ctx, p, model.DateOf(s.now()).AddDays(1-days))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// RealTimeOccupancy counts seats occupied right now per station.
func (s *AdminService) RealTimeOccupancy(ctx context.Context) ([]model.LiveOccupancy, error) {
	now := s.now()
	at := model.Clock(now.Hour()*60 + now.Minute())
	out, err := s.analytics.LiveOccupancy(ctx, model.DateOf(now), at)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// PeakHours counts bookings by start hour over the last days days.
func (s *AdminService) PeakHours(ctx context.Context, days int) ([]model.HourCount, error) {
	days = clampDays(days, defaultAnalyticsDays)
	out, err := s.analytics.PeakHours(ctx, model.DateOf(s.now()).AddDays(1-days))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
