package repository_test

import (
    "context"
    "errors"
    "fmt"
    "os"
    "sync"
    "testing"

    "github.com/jmoiron/sqlx"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/database"
    "github.com/summit-hub/booking-api/internal/logging"
    "github.com/summit-hub/booking-api/internal/model"
    "github.com/summit-hub/booking-api/internal/queue"
    "github.com/summit-hub/booking-api/internal/repository"
    "github.com/summit-hub/booking-api/internal/service"
)

// These tests run against a real MySQL so the row lock and the SQL
// predicates are exercised.  Point MYSQL_TEST_DSN at a disposable schema,
// e.g. "root:pw@tcp(localhost:3306)/summit_test?parseTime=true&loc=Local".
// Every table is emptied before each test.

const testDate = "2031-05-12"

type fixture struct {
    db       *sqlx.DB
    users    *repository.UserRepo
    stations map[int]model.Station
    bookings *repository.BookingRepo
    admin    *repository.AdminRepo
    svc      *service.BookingService
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    dsn := os.Getenv("MYSQL_TEST_DSN")
    if dsn == "" {
        t.Skip("MYSQL_TEST_DSN not set")
    }
    db, err := database.Open(dsn)
    if err != nil {
        t.Fatal(err)
    }
    t.Cleanup(func() { _ = db.Close() })
    ctx := context.Background()
    if err := database.Migrate(ctx, db); err != nil {
        t.Fatal(err)
    }
    for _, table := range []string{"admin_actions", "bookings", "users", "stations"} {
        if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
            t.Fatal(err)
        }
    }

    st := repository.NewStationRepo(db)
    if _, err := st.EnsureNumbers(ctx, model.DefaultStationNumbers); err != nil {
        t.Fatal(err)
    }
    list, err := st.List(ctx)
    if err != nil {
        t.Fatal(err)
    }
    f := &fixture{
        db:       db,
        users:    repository.NewUserRepo(db),
        stations: map[int]model.Station{},
        bookings: repository.NewBookingRepo(db),
        admin:    repository.NewAdminRepo(db),
    }
    for _, s := range list {
        f.stations[s.Number] = s
    }
    f.svc = service.NewBookingService(f.bookings, f.users, queue.Discard{}, logging.Discard())
    return f
}

func (f *fixture) user(t *testing.T, n int) *model.User {
    t.Helper()
    u := &model.User{
        Name:         "Trader",
        FullName:     fmt.Sprintf("Trader Number %d", n),
        LegalID:      fmt.Sprintf("%011d", n),
        Phone:        "11987654321",
        Company:      "Acme",
        Email:        fmt.Sprintf("trader%d@example.com", n),
        PasswordHash: "x",
    }
    if err := f.users.Create(context.Background(), u); err != nil {
        t.Fatal(err)
    }
    return u
}

func seat(n int) *int { return &n }

func bookingReq(stationID, start, end string, s *int) service.BookingRequest {
    return service.BookingRequest{StationID: stationID, Date: testDate, StartTime: start, EndTime: end, SeatNumber: s}
}

func TestConcurrentOverlappingCreatesOneWins(t *testing.T) {
    f := newFixture(t)
    st := f.stations[1]
    const n = 6
    owners := make([]*model.User, n)
    for i := range owners {
        owners[i] = f.user(t, i+1)
    }

    var wg sync.WaitGroup
    errs := make([]error, n)
    start := make(chan struct{})
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            // every window overlaps 09:30
            _, errs[i] = f.svc.Create(context.Background(), owners[i].ID,
                bookingReq(st.ID, fmt.Sprintf("09:%02d", i*5), "10:00", seat(4)))
        }(i)
    }
    close(start)
    wg.Wait()

    ok := 0
    for i, err := range errs {
        switch {
        case err == nil:
            ok++
        case !apperr.Is(err, apperr.KindConflict):
            t.Errorf("request %d: unexpected error %v", i, err)
        }
    }
    if ok != 1 {
        t.Fatalf("%d creations succeeded, want exactly 1", ok)
    }
    booked, err := f.bookings.ListActiveForStationDate(context.Background(), st.ID, model.MustDate(testDate))
    if err != nil {
        t.Fatal(err)
    }
    if len(booked) != 1 {
        t.Errorf("stored %d bookings, want 1", len(booked))
    }
}

func TestSeatConflictPredicate(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    u := f.user(t, 1)
    st := f.stations[3]

    if _, err := f.svc.Create(ctx, u.ID, bookingReq(st.ID, "09:00", "10:00", seat(1))); err != nil {
        t.Fatal(err)
    }
    tests := []struct {
        start, end string
        conflict   bool
    }{
        {"09:30", "10:30", true},
        {"10:00", "11:00", true}, // touching end
        {"08:00", "09:00", true}, // touching start
        {"08:00", "08:59", false},
        {"10:01", "11:00", false},
    }
    for _, tt := range tests {
        t.Run(tt.start+"-"+tt.end, func(t *testing.T) {
            err := f.bookings.WithStationLock(ctx, st.ID, func(tx repository.BookingTx) error {
                b, err := tx.FindSeatConflict(ctx, 1, model.MustDate(testDate),
                    model.MustClock(tt.start), model.MustClock(tt.end))
                if err != nil {
                    return err
                }
                if (b != nil) != tt.conflict {
                    t.Errorf("conflict = %v, want %v", b != nil, tt.conflict)
                }
                return nil
            })
            if err != nil {
                t.Fatal(err)
            }
        })
    }

    _, err := f.svc.Create(ctx, u.ID, bookingReq(st.ID, "10:00", "11:00", seat(1)))
    if !apperr.Is(err, apperr.KindConflict) {
        t.Errorf("10:00-11:00 after 09:00-10:00: err = %v", err)
    }
}

func TestCancelledBookingFreesSeat(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    u := f.user(t, 1)
    st := f.stations[3]

    b, err := f.svc.Create(ctx, u.ID, bookingReq(st.ID, "09:00", "10:00", seat(1)))
    if err != nil {
        t.Fatal(err)
    }
    if _, err := f.svc.Cancel(ctx, u.ID, b.ID); err != nil {
        t.Fatal(err)
    }
    if _, err := f.svc.Create(ctx, u.ID, bookingReq(st.ID, "09:00", "10:00", seat(1))); err != nil {
        t.Errorf("rebooking a cancelled slot: %v", err)
    }
}

func TestWithStationLockUnknownStation(t *testing.T) {
    f := newFixture(t)
    err := f.bookings.WithStationLock(context.Background(), "no-such-station", func(repository.BookingTx) error {
        t.Error("callback ran for a missing station")
        return nil
    })
    if !errors.Is(err, repository.ErrStationNotFound) {
        t.Errorf("err = %v, want ErrStationNotFound", err)
    }
}

func TestCancelOwned(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    owner, other := f.user(t, 1), f.user(t, 2)

    b, err := f.svc.Create(ctx, owner.ID, bookingReq(f.stations[1].ID, "09:00", "10:00", seat(1)))
    if err != nil {
        t.Fatal(err)
    }
    if _, _, err := f.bookings.CancelOwned(ctx, b.ID, other.ID); !errors.Is(err, repository.ErrNotFound) {
        t.Errorf("cancel by another user: err = %v", err)
    }
    got, changed, err := f.bookings.CancelOwned(ctx, b.ID, owner.ID)
    if err != nil || !changed || got.Status != model.BookingCancelled {
        t.Fatalf("first cancel = %+v, %v, %v", got, changed, err)
    }
    if _, changed, err := f.bookings.CancelOwned(ctx, b.ID, owner.ID); err != nil || changed {
        t.Errorf("second cancel changed = %v, err = %v", changed, err)
    }
    mine, err := f.bookings.ListActiveByUser(ctx, owner.ID)
    if err != nil || len(mine) != 0 {
        t.Errorf("active after cancel = %v, %v", mine, err)
    }
}

func TestAdminCancelWritesAuditInSameTx(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    trader, admin := f.user(t, 1), f.user(t, 2)

    b, err := f.svc.Create(ctx, trader.ID, bookingReq(f.stations[5].ID, "14:00", "15:00", seat(2)))
    if err != nil {
        t.Fatal(err)
    }
    got, err := f.admin.CancelBooking(ctx, b.ID, "double booked", &model.AdminAction{UserID: admin.ID})
    if err != nil {
        t.Fatal(err)
    }
    if got.Status != model.BookingCancelled || got.CancelReason == nil || *got.CancelReason != "double booked" {
        t.Errorf("booking = %+v", got)
    }

    // a missing booking rolls back without an audit row
    if _, err := f.admin.CancelBooking(ctx, "missing", "x", &model.AdminAction{UserID: admin.ID}); !errors.Is(err, repository.ErrNotFound) {
        t.Errorf("missing booking: err = %v", err)
    }

    rows, total, err := f.admin.ListActions(ctx, 10, 0)
    if err != nil {
        t.Fatal(err)
    }
    if total != 1 || len(rows) != 1 {
        t.Fatalf("audit rows = %d (total %d), want 1", len(rows), total)
    }
    a := rows[0]
    if a.Action != model.ActionCancelBooking || a.TargetID != b.ID || a.Reason != "double booked" || a.ActorEmail != admin.Email {
        t.Errorf("audit = %+v", a)
    }
}

func TestAnalyticsCounts(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    u := f.user(t, 1)
    st := f.stations[3]
    if _, err := f.svc.Create(ctx, u.ID, bookingReq(st.ID, "09:00", "10:00", seat(1))); err != nil {
        t.Fatal(err)
    }
    an := repository.NewAnalyticsRepo(f.db)
    day := model.MustDate(testDate)

    occ, err := an.StationOccupancy(ctx, day, day)
    if err != nil {
        t.Fatal(err)
    }
    for _, o := range occ {
        want := 0
        if o.StationNumber == 3 {
            want = 1
        }
        if o.Bookings != want {
            t.Errorf("station %d bookings = %d, want %d", o.StationNumber, o.Bookings, want)
        }
    }

    live, err := an.LiveOccupancy(ctx, day, model.MustClock("09:30"))
    if err != nil {
        t.Fatal(err)
    }
    for _, l := range live {
        if l.StationNumber == 3 && l.Occupied != 1 {
            t.Errorf("station 3 occupied = %d, want 1", l.Occupied)
        }
    }

    hours, err := an.PeakHours(ctx, day)
    if err != nil {
        t.Fatal(err)
    }
    if len(hours) != 1 || hours[0].Hour != 9 || hours[0].Bookings != 1 {
        t.Errorf("peak hours = %+v", hours)
    }
}
