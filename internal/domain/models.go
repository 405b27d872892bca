// Package domain defines the persistence models for chat messages and room
// bookings. These types are mapped with GORM and form the session-scoped data
// layer of the assistant. The store is ephemeral by default (in-memory SQLite);
// rows exist only for the lifetime of the process.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles. The assistant role is mapped to the provider's "model" role
// at the LLM adapter boundary; it is stored here as "assistant".
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single utterance within a session's conversation.
// Messages are append-only: created on each user submission and each model
// reply, never mutated afterward.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SessionID: identifier of the owning session; indexed for retrieval.
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text content of the message.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID string         `json:"session_id" gorm:"type:varchar(64);not null;index:idx_session_msgs,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// BackupSlot is an alternative date/time pair attached to a booking. Up to two
// backup slots may be supplied; empty slots are not persisted.
type BackupSlot struct {
	Date  string `json:"date"`  // ISO-8601 calendar date
	Start string `json:"start"` // zero-padded HH:MM
	End   string `json:"end"`   // zero-padded HH:MM
}

// Booking is a normalized, accepted room-booking request. It is constructed
// only from input that passed validation and is never mutated after creation.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID: identifier of the submitting session; indexed.
//   - SubmissionID: human-readable per-year sequential id, e.g. "2026-0001".
//   - Name/Email/Address: required contact fields, trimmed.
//   - People: attendee count, >= 1.
//   - Room: normalized room name (title case), optional.
//   - Date/Start/End: primary slot, ISO date + zero-padded HH:MM.
//   - Backup1/Backup2: optional alternative slots (embedded).
//   - Organization/Occasion/UsageFrequency/Notes: optional free text, trimmed.
//   - Cleaning/CleaningFee: surcharge applied when cleaning is requested.
//   - SubmittedAt: UTC acceptance timestamp.
type Booking struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	SessionID    string `json:"session_id"    gorm:"type:varchar(64);not null;index:idx_session_bookings"`
	SubmissionID string `json:"submission_id" gorm:"type:varchar(16);not null;uniqueIndex"`

	Name    string `json:"name"    gorm:"type:varchar(255);not null"`
	Email   string `json:"email"   gorm:"type:varchar(255);not null"`
	Address string `json:"address" gorm:"type:varchar(255);not null"`
	People  int    `json:"people"  gorm:"not null;check:people >= 1"`
	Room    string `json:"room,omitempty" gorm:"type:varchar(64)"`

	Date  string `json:"date"  gorm:"type:varchar(10);not null"`
	Start string `json:"start" gorm:"type:varchar(5);not null"`
	End   string `json:"end"   gorm:"type:varchar(5);not null"`

	Backup1 *BackupSlot `json:"backup1,omitempty" gorm:"embedded;embeddedPrefix:backup1_"`
	Backup2 *BackupSlot `json:"backup2,omitempty" gorm:"embedded;embeddedPrefix:backup2_"`

	Organization   string `json:"organization,omitempty"    gorm:"type:varchar(255)"`
	Occasion       string `json:"occasion,omitempty"        gorm:"type:varchar(255)"`
	UsageFrequency string `json:"usage_frequency,omitempty" gorm:"type:varchar(64)"`
	Notes          string `json:"notes,omitempty"           gorm:"type:text"`

	Cleaning    bool `json:"cleaning"`
	CleaningFee int  `json:"cleaning_fee"`

	SubmittedAt time.Time      `json:"submitted_at" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }
