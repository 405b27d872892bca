// Package repo implements the session-state persistence layer for domain
// entities, backed by GORM. This file provides repository functions for the
// Booking model.
//
// Error semantics:
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated; the service layer decides how to
//     surface it.
package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/averko/go-room-assistant/internal/domain"
)

// CreateBooking inserts a normalized booking row. The caller is responsible
// for having validated and normalized the record (including its SubmissionID
// and SubmittedAt stamp); only the primary key is assigned here.
func CreateBooking(db *gorm.DB, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return db.Create(b).Error
}

// CountBookings returns the total number of bookings for a session.
func CountBookings(db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM bookings WHERE session_id = ?", sessionID).Scan(&total).Error
	return total, err
}

// LastSubmissionID returns the greatest submission id on record, or "" when
// no bookings exist. IDs are zero-padded, so within a year the lexical maximum
// is the most recently issued one; a file-backed store uses this to resume the
// sequencer after a restart.
func LastSubmissionID(db *gorm.DB) (string, error) {
	var id string
	err := db.Raw("SELECT COALESCE(MAX(submission_id), '') FROM bookings").Scan(&id).Error
	return id, err
}

// ListBookingsPage returns a paginated slice of a session's bookings, newest
// first (the UI shows recent requests on top).
func ListBookingsPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
