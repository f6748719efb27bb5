package handler

import (
    "context"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/logging"
    "github.com/summit-hub/booking-api/internal/model"
    "github.com/summit-hub/booking-api/internal/repository"
    "github.com/summit-hub/booking-api/internal/service"
)

// bookingFake keeps stations, users and bookings in memory.  Methods the
// handlers below never reach panic through the nil embedded interfaces.
type bookingFake struct {
    service.BookingStore
    mu       sync.Mutex
    stations map[string]model.Station
    users    map[string]*model.User
    bookings []*model.Booking
    actions  []model.AdminAction
}

func newBookingFake() *bookingFake {
    f := &bookingFake{stations: map[string]model.Station{}, users: map[string]*model.User{}}
    for _, n := range model.DefaultStationNumbers {
        id := fmt.Sprintf("st-%d", n)
        f.stations[id] = model.Station{ID: id, Number: n, Status: model.StationActive}
    }
    for _, u := range []*model.User{
        {ID: "u1", Name: "Ana", FullName: "Ana Paula Silva", LegalID: "52998224725", Email: "ana@example.com", Role: model.RoleTrader},
        {ID: "u2", Name: "Bruno", FullName: "Bruno Costa", LegalID: "11144477735", Email: "bruno@example.com", Role: model.RoleTrader},
        {ID: "adm", Name: "Site", FullName: "Site Admin", Email: "admin@example.com", Role: model.RoleAdmin},
    } {
        f.users[u.ID] = u
    }
    return f
}

func (f *bookingFake) GetByID(_ context.Context, id string) (*model.User, error) {
    if u, ok := f.users[id]; ok {
        return u, nil
    }
    return nil, repository.ErrNotFound
}

func (f *bookingFake) view(b *model.Booking) *model.BookingView {
    u := f.users[b.UserID]
    return &model.BookingView{Booking: *b, StationNumber: f.stations[b.StationID].Number,
        UserName: u.Name, UserEmail: u.Email}
}

func (f *bookingFake) find(id string) *model.Booking {
    for _, b := range f.bookings {
        if b.ID == id {
            return b
        }
    }
    return nil
}

func (f *bookingFake) WithStationLock(_ context.Context, stationID string, fn func(repository.BookingTx) error) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    st, ok := f.stations[stationID]
    if !ok {
        return repository.ErrStationNotFound
    }
    return fn(fakeTx{f: f, st: st})
}

func (f *bookingFake) GetView(_ context.Context, id string) (*model.BookingView, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if b := f.find(id); b != nil {
        return f.view(b), nil
    }
    return nil, repository.ErrNotFound
}

func (f *bookingFake) ListActiveByUser(_ context.Context, userID string) ([]model.BookingView, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.BookingView{}
    for _, b := range f.bookings {
        if b.UserID == userID && b.Status == model.BookingActive {
            out = append(out, *f.view(b))
        }
    }
    return out, nil
}

func (f *bookingFake) CancelOwned(_ context.Context, id, userID string) (*model.Booking, bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b := f.find(id)
    if b == nil || b.UserID != userID {
        return nil, false, repository.ErrNotFound
    }
    if b.Status != model.BookingActive {
        cp := *b
        return &cp, false, nil
    }
    now := time.Now()
    b.Status, b.CancelledAt = model.BookingCancelled, &now
    cp := *b
    return &cp, true, nil
}

type fakeTx struct {
    f  *bookingFake
    st model.Station
}

func (t fakeTx) Station() model.Station { return t.st }

func (t fakeTx) FindSeatConflict(_ context.Context, seat int, date model.Date, start, end model.Clock) (*model.Booking, error) {
    for _, b := range t.f.bookings {
        if b.StationID == t.st.ID && b.SeatNumber != nil && *b.SeatNumber == seat && b.Date.Equal(date) &&
            b.Status == model.BookingActive && b.Overlaps(start, end) {
            return b, nil
        }
    }
    return nil, nil
}

func (t fakeTx) Insert(_ context.Context, b *model.Booking) error {
    b.ID = fmt.Sprintf("b-%d", len(t.f.bookings)+1)
    b.CreatedAt = time.Now()
    cp := *b
    t.f.bookings = append(t.f.bookings, &cp)
    return nil
}

func (t fakeTx) View(_ context.Context, id string) (*model.BookingView, error) {
    return t.f.view(t.f.find(id)), nil
}

// adminFake is the audited write side over the same bookings.
type adminFake struct {
    service.AdminStore
    f *bookingFake
}

func (a adminFake) CancelBooking(_ context.Context, id, reason string, action *model.AdminAction) (*model.Booking, error) {
    a.f.mu.Lock()
    defer a.f.mu.Unlock()
    b := a.f.find(id)
    if b == nil {
        return nil, repository.ErrNotFound
    }
    now := time.Now()
    b.Status, b.CancelReason, b.CancelledAt = model.BookingCancelled, &reason, &now
    action.Action, action.TargetID, action.Reason = model.ActionCancelBooking, id, reason
    a.f.actions = append(a.f.actions, *action)
    cp := *b
    return &cp, nil
}

func asUser(u *model.User) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            c.Set("user", u)
            return next(c)
        }
    }
}

type bookingServer struct {
    e    *echo.Echo
    fake *bookingFake
}

func newBookingServer() *bookingServer {
    fake := newBookingFake()
    logger := logging.Discard()
    bookings := service.NewBookingService(fake, fake, nil, logger)
    stations := service.NewStationService(&stationStub{station: fake.stations["st-3"]}, fake)
    h := NewBookingHandler(bookings, stations)
    admin := NewAdminHandler(service.NewAdminService(adminFake{f: fake}, bookings, nil, logger))

    e := newEcho()
    for id, u := range fake.users {
        g := e.Group("/as/"+id, asUser(u))
        g.POST("/api/bookings", h.Create)
        g.GET("/api/bookings", h.List)
        g.GET("/api/bookings/stations", h.StationList)
        g.DELETE("/api/bookings/:id", h.Cancel)
        g.DELETE("/api/admin/bookings/:id", admin.CancelBooking)
    }
    return &bookingServer{e: e, fake: fake}
}

func (s *bookingServer) do(method, userID, path, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, "/as/"+userID+path, nil)
    } else {
        req = httptest.NewRequest(method, "/as/"+userID+path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    return rec
}

func bookingBody(station, start, end string, seat int) string {
    return fmt.Sprintf(`{"stationId":%q,"date":"2030-01-15","startTime":%q,"endTime":%q,"seatNumber":%d}`,
        station, start, end, seat)
}

func TestCreateBooking(t *testing.T) {
    s := newBookingServer()

    rec := s.do(http.MethodPost, "u1", "/api/bookings", bookingBody("st-3", "09:00", "10:00", 1))
    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
    }
    b := decode(t, rec)["booking"].(map[string]interface{})
    if b["seatId"] != "3-1" || b["status"] != "ACTIVE" || b["fullName"] != "Ana Paula Silva" || b["userEmail"] != "ana@example.com" {
        t.Errorf("booking = %v", b)
    }

    tests := []struct {
        name   string
        body   string
        status int
        msg    string
    }{
        {"overlap", bookingBody("st-3", "09:30", "10:30", 1), 400, "seat 1 is already booked for this time"},
        {"touching", bookingBody("st-3", "10:00", "11:00", 1), 400, "seat 1 is already booked for this time"},
        {"before opening", bookingBody("st-3", "07:59", "09:00", 1), 400, "opening hours: 08:00 to 18:00"},
        {"reversed", bookingBody("st-3", "11:00", "10:00", 1), 400, "start time must be before end time"},
        {"seat out of range", bookingBody("st-3", "11:00", "12:00", 2), 400, "seat number must be between 1 and 1"},
        {"unknown station", bookingBody("st-99", "11:00", "12:00", 1), 400, "station not available"},
        {"bad body", `{"stationId":`, 400, "invalid request body"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := s.do(http.MethodPost, "u2", "/api/bookings", tt.body)
            if rec.Code != tt.status {
                t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
            }
            if msg := decode(t, rec)["message"]; msg != tt.msg {
                t.Errorf("message = %v, want %q", msg, tt.msg)
            }
        })
    }

    rec = s.do(http.MethodGet, "u1", "/api/bookings", "")
    if got, _ := decode(t, rec)["bookings"].([]interface{}); len(got) != 1 {
        t.Errorf("list = %s", rec.Body.String())
    }
}

func TestCancelBooking(t *testing.T) {
    s := newBookingServer()
    rec := s.do(http.MethodPost, "u1", "/api/bookings", bookingBody("st-1", "09:00", "10:00", 1))
    id := decode(t, rec)["booking"].(map[string]interface{})["id"].(string)
    other := s.do(http.MethodPost, "u2", "/api/bookings", bookingBody("st-1", "09:00", "10:00", 2))
    otherID := decode(t, other)["booking"].(map[string]interface{})["id"].(string)

    rec = s.do(http.MethodDelete, "u2", "/api/bookings/"+id, "")
    if rec.Code != http.StatusNotFound || decode(t, rec)["message"] != "booking not found" {
        t.Fatalf("cancel by another trader: %d %s", rec.Code, rec.Body.String())
    }

    for i := 0; i < 2; i++ {
        rec = s.do(http.MethodDelete, "u1", "/api/bookings/"+id, "")
        if rec.Code != http.StatusOK {
            t.Fatalf("cancel #%d: %d %s", i+1, rec.Code, rec.Body.String())
        }
        if st := decode(t, rec)["booking"].(map[string]interface{})["status"]; st != "CANCELLED" {
            t.Errorf("cancel #%d status = %v", i+1, st)
        }
    }

    if b := s.fake.find(otherID); b.Status != model.BookingActive {
        t.Errorf("other booking status = %s", b.Status)
    }
}

func TestAdminCancelBooking(t *testing.T) {
    s := newBookingServer()
    rec := s.do(http.MethodPost, "u1", "/api/bookings", bookingBody("st-5", "14:00", "15:00", 2))
    id := decode(t, rec)["booking"].(map[string]interface{})["id"].(string)

    rec = s.do(http.MethodDelete, "adm", "/api/admin/bookings/"+id, `{"reason":"seat under repair"}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
    }
    b := decode(t, rec)["booking"].(map[string]interface{})
    if b["status"] != "CANCELLED" || b["cancelReason"] != "seat under repair" {
        t.Errorf("booking = %v", b)
    }
    if len(s.fake.actions) != 1 {
        t.Fatalf("audit rows = %d", len(s.fake.actions))
    }
    if a := s.fake.actions[0]; a.UserID != "adm" || a.TargetID != id || a.Reason != "seat under repair" {
        t.Errorf("audit = %+v", a)
    }

    // no body falls back to the default reason
    rec = s.do(http.MethodDelete, "adm", "/api/admin/bookings/"+id, "")
    if got := decode(t, rec)["booking"].(map[string]interface{})["cancelReason"]; got != service.DefaultCancelReason {
        t.Errorf("default reason = %v", got)
    }

    rec = s.do(http.MethodDelete, "adm", "/api/admin/bookings/missing", "")
    if rec.Code != http.StatusNotFound {
        t.Errorf("missing booking status = %d", rec.Code)
    }
}

func TestStationListHandler(t *testing.T) {
    s := newBookingServer()
    rec := s.do(http.MethodGet, "u1", "/api/bookings/stations", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
    }
    if st := decode(t, rec)["stations"].([]interface{}); len(st) != 1 {
        t.Errorf("stations = %v", st)
    }
}
