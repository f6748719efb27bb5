package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/notify"
	"github.com/summit-hub/booking-api/internal/queue"
	"github.com/summit-hub/booking-api/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL repositories.  Station locks
// are per-station mutexes, matching the row lock's serialisation.
type memDB struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	users    map[string]*model.User
	stations map[string]*model.Station
	bookings []*model.Booking
	actions  []model.AdminAction
	seq      int
	failList error
}

func newMemDB() *memDB {
	db := &memDB{
		locks:    map[string]*sync.Mutex{},
		users:    map[string]*model.User{},
		stations: map[string]*model.Station{},
	}
	for _, n := range model.DefaultStationNumbers {
		id := fmt.Sprintf("st-%d", n)
		db.stations[id] = &model.Station{ID: id, Number: n, Status: model.StationActive}
		db.locks[id] = &sync.Mutex{}
	}
	return db
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) addUser(id, fullName, email string) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &model.User{ID: id, Name: FirstName(fullName), FullName: fullName, LegalID: "52998224725",
		Email: email, Role: model.RoleTrader}
	db.users[id] = u
	return u
}

func (db *memDB) view(b *model.Booking) *model.BookingView {
	v := &model.BookingView{Booking: *b}
	if st, ok := db.stations[b.StationID]; ok {
		v.StationNumber = st.Number
	}
	if u, ok := db.users[b.UserID]; ok {
		v.UserName = u.Name
		v.UserEmail = u.Email
	}
	return v
}

// BookingStore

func (db *memDB) WithStationLock(ctx context.Context, stationID string, fn func(repository.BookingTx) error) error {
	db.mu.Lock()
	lock, ok := db.locks[stationID]
	db.mu.Unlock()
	if !ok {
		return repository.ErrStationNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	db.mu.Lock()
	st := *db.stations[stationID]
	db.mu.Unlock()
	tx := &memTx{db: db, station: st}
	if err := fn(tx); err != nil {
		return err
	}
	db.mu.Lock()
	db.bookings = append(db.bookings, tx.pending...)
	db.mu.Unlock()
	return nil
}

type memTx struct {
	db      *memDB
	station model.Station
	pending []*model.Booking
}

func (t *memTx) Station() model.Station { return t.station }

func (t *memTx) FindSeatConflict(_ context.Context, seat int, date model.Date, start, end model.Clock) (*model.Booking, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for _, b := range append(append([]*model.Booking{}, t.db.bookings...), t.pending...) {
		if b.StationID == t.station.ID && b.SeatNumber != nil && *b.SeatNumber == seat &&
			b.Date.Equal(date) && b.Status == model.BookingActive && b.Overlaps(start, end) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) Insert(_ context.Context, b *model.Booking) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	b.ID = t.db.nextID("bk")
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	t.pending = append(t.pending, &cp)
	return nil
}

func (t *memTx) View(_ context.Context, id string) (*model.BookingView, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for _, b := range t.pending {
		if b.ID == id {
			return t.db.view(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (db *memDB) find(id string) *model.Booking {
	for _, b := range db.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (db *memDB) GetView(_ context.Context, id string) (*model.BookingView, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b := db.find(id); b != nil {
		return db.view(b), nil
	}
	return nil, repository.ErrNotFound
}

func (db *memDB) ListActiveByUser(_ context.Context, userID string) ([]model.BookingView, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failList != nil {
		return nil, db.failList
	}
	out := []model.BookingView{}
	for _, b := range db.bookings {
		if b.UserID == userID && b.Status == model.BookingActive {
			out = append(out, *db.view(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Time().Before(out[j].Date.Time())
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (db *memDB) admin(b *model.Booking) model.BookingAdminView {
	v := model.BookingAdminView{BookingView: *db.view(b)}
	if u, ok := db.users[b.UserID]; ok {
		v.UserFullName = u.FullName
		v.UserLegalID = u.LegalID
		v.UserPhone = u.Phone
		v.UserCompany = u.Company
	}
	return v
}

func (db *memDB) ListAll(_ context.Context, limit, offset int) ([]model.BookingAdminView, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.BookingAdminView{}
	for i := offset; i < len(db.bookings) && len(out) < limit; i++ {
		out = append(out, db.admin(db.bookings[i]))
	}
	return out, len(db.bookings), nil
}

func (db *memDB) ListForExport(_ context.Context) ([]model.BookingAdminView, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.BookingAdminView{}
	for _, b := range db.bookings {
		out = append(out, db.admin(b))
	}
	return out, nil
}

func (db *memDB) ListActiveOnDate(_ context.Context, date model.Date) ([]model.BookingView, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failList != nil {
		return nil, db.failList
	}
	out := []model.BookingView{}
	for _, b := range db.bookings {
		if b.Date.Equal(date) && b.Status == model.BookingActive {
			out = append(out, *db.view(b))
		}
	}
	return out, nil
}

func (db *memDB) ListActiveForStationDate(_ context.Context, stationID string, date model.Date) ([]model.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.Booking{}
	for _, b := range db.bookings {
		if b.StationID == stationID && b.Date.Equal(date) && b.Status == model.BookingActive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (db *memDB) CancelOwned(_ context.Context, id, userID string) (*model.Booking, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := db.find(id)
	if b == nil || b.UserID != userID {
		return nil, false, repository.ErrNotFound
	}
	changed := false
	if b.Status == model.BookingActive {
		now := time.Now()
		b.Status = model.BookingCancelled
		b.CancelledAt = &now
		changed = true
	}
	cp := *b
	return &cp, changed, nil
}

// UserReader

func (db *memDB) GetByID(_ context.Context, id string) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u, ok := db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

// StationStore

func (db *memDB) List(_ context.Context) ([]model.Station, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.Station{}
	for _, st := range db.stations {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (db *memDB) ListWithBookingCounts(ctx context.Context, date model.Date) ([]model.StationSummary, error) {
	stations, _ := db.List(ctx)
	out := []model.StationSummary{}
	for _, st := range stations {
		active, _ := db.ListActiveForStationDate(ctx, st.ID, date)
		out = append(out, model.StationSummary{Station: st, Name: model.StationName(st.Number),
			SeatCount: model.SeatCount(st.Number), TodayBookings: len(active)})
	}
	return out, nil
}

type stationGetter struct{ *memDB }

func (s stationGetter) GetByID(_ context.Context, id string) (*model.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stations[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

// AdminStore

func (db *memDB) CancelBooking(_ context.Context, bookingID, reason string, action *model.AdminAction) (*model.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := db.find(bookingID)
	if b == nil {
		return nil, repository.ErrNotFound
	}
	now := time.Now()
	b.Status = model.BookingCancelled
	b.CancelReason = &reason
	if b.CancelledAt == nil {
		b.CancelledAt = &now
	}
	action.ID = db.nextID("act")
	action.Action = model.ActionCancelBooking
	action.TargetID = bookingID
	action.Reason = reason
	action.CreatedAt = now
	db.actions = append(db.actions, *action)
	cp := *b
	return &cp, nil
}

func (db *memDB) SetStationStatus(_ context.Context, stationID string, status model.StationStatus, action *model.AdminAction) (*model.Station, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	st, ok := db.stations[stationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	st.Status = status
	action.ID = db.nextID("act")
	action.TargetID = stationID
	action.CreatedAt = time.Now()
	db.actions = append(db.actions, *action)
	cp := *st
	return &cp, nil
}

func (db *memDB) ListActions(_ context.Context, limit, offset int) ([]model.AdminActionView, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.AdminActionView{}
	for i := len(db.actions) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, model.AdminActionView{AdminAction: db.actions[i]})
	}
	return out, len(db.actions), nil
}

// recordingPublisher collects events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// flakyNotifier fails for the listed recipients.
type flakyNotifier struct {
	mu    sync.Mutex
	fail  map[string]bool
	sent  []notify.Message
	tries int
}

func (n *flakyNotifier) Send(_ context.Context, m notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tries++
	if n.fail[m.To] {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, m)
	return nil
}
