// Package repo implements the session-state persistence layer for domain
// entities, backed by GORM. This file provides repository functions for the
// Message model.
//
// All functions accept a *gorm.DB handle, making them safe for use within
// transactions or connection-scoped operations. They follow the "thin
// repository" approach: no business logic, only CRUD persistence and query
// composition.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/averko/go-room-assistant/internal/domain"
)

// CreateMessage inserts a new message row for a session.
func CreateMessage(db *gorm.DB, sessionID, role, content string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListRecentMessages returns the most recent limit messages of a session in
// chronological order (oldest first). This is the window forwarded to the
// model on each chat turn.
func ListRecentMessages(db *gorm.DB, sessionID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.Where("session_id = ?", sessionID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
