// Package detail implements the record detail modal.
//
// A Modal shows one record at a time. Opening a record by ID replaces
// whatever was shown before and stops any speech that was reading it.
// Closing through the close control, an overlay click or the escape key
// all end the same way. Copy writes the raw body to the clipboard and falls
// back to handing the text back for manual selection when no clipboard is
// available; either way the outcome is reported as a Toast.
package detail
