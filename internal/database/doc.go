// Package database provides SQLite-based storage for showcase.
//
// PrefDB stores two kinds of data in one file under the XDG data
// directory:
//   - preferences: small key/value flags such as the dismissed greeting,
//     the reading gate expiry and speech settings; a value may carry an
//     expiry, after which it reads as absent
//   - load reports: one row per gallery load, used by the history command
//     to compare loads over time
//
// The driver is modernc.org/sqlite, which needs no cgo, and the database runs
// in WAL mode.
package database
