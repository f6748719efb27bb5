// Package repository holds the MySQL data access layer.  Repositories return
// the sentinel errors below so the service layer can translate them into
// client-facing error kinds without inspecting driver errors.
package repository

import (
    "database/sql"
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked-up row does not exist (or is not
// visible to the caller, e.g. another trader's booking).
var ErrNotFound = errors.New("not found")

// ErrStationNotFound is returned by BookingRepo.WithStationLock when the
// station row to lock does not exist.
var ErrStationNotFound = errors.New("station not found")

// ErrDuplicateEmail and ErrDuplicateLegalID report unique key violations on
// users.
var (
    ErrDuplicateEmail   = errors.New("email already registered")
    ErrDuplicateLegalID = errors.New("legal id already registered")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey returns the key name of a duplicate entry error, or "".
func duplicateKey(err error) string {
    var me *mysql.MySQLError
    if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
        return ""
    }
    // message: Duplicate entry 'x' for key 'users.uq_users_email'
    msg := me.Message
    if i := strings.LastIndex(msg, "for key '"); i >= 0 {
        key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
        if j := strings.LastIndex(key, "."); j >= 0 {
            key = key[j+1:]
        }
        return key
    }
    return "unknown"
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error) error {
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    return err
}
