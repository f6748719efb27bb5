// Package report renders booking exports.
package report

import (
	"encoding/csv"
	"io"

	"github.com/summit-hub/booking-api/internal/model"
)

// Header is the first row of the bookings export.
var Header = []string{"Booked At", "Trader", "Email", "Legal ID", "Phone", "Company", "Station", "Date", "Time", "Status"}

const bookedAtLayout = "2006-01-02 15:04"

// WriteBookings writes rows as CSV with Header first.  Fields containing
// commas, quotes or newlines are quoted.
func WriteBookings(w io.Writer, rows []model.BookingAdminView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		trader := r.FullName
		if trader == "" {
			trader = r.UserFullName
		}
		legalID := r.LegalID
		if legalID == "" {
			legalID = r.UserLegalID
		}
		rec := []string{
			r.CreatedAt.Format(bookedAtLayout),
			trader,
			r.UserEmail,
			legalID,
			r.UserPhone,
			r.UserCompany,
			model.StationName(r.StationNumber),
			r.Date.String(),
			r.StartTime.String() + " - " + r.EndTime.String(),
			string(r.Status),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
