// Package services – BookingService
//
// This file implements BookingService, which validates room-booking requests,
// normalizes them into Booking records, assigns per-year submission ids,
// persists them for the session, and forwards accepted records to the
// configured webhook.
//
// Validation is exhaustive rather than short-circuiting: every rule is checked
// and each violation contributes its own message, so the user can fix the
// whole form in one pass. A per-session cooldown plus an in-flight guard
// protect against duplicate submissions from rapid repeated clicks.
package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/averko/go-room-assistant/internal/domain"
	"github.com/averko/go-room-assistant/internal/repo"
	"github.com/averko/go-room-assistant/internal/sequence"
	"github.com/averko/go-room-assistant/internal/webhook"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SlotInput is one date/time pair as submitted, prior to normalization.
type SlotInput struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// IsZero reports whether the slot was left entirely blank.
func (s SlotInput) IsZero() bool {
	return strings.TrimSpace(s.Date) == "" &&
		strings.TrimSpace(s.Start) == "" &&
		strings.TrimSpace(s.End) == ""
}

// BookingInput is the raw booking form payload.
type BookingInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	People  int    `json:"people"`
	Room    string `json:"room"`

	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`

	Backups []SlotInput `json:"backups"`

	Organization   string `json:"organization"`
	Occasion       string `json:"occasion"`
	UsageFrequency string `json:"usage_frequency"`
	Notes          string `json:"notes"`
	Cleaning       bool   `json:"cleaning"`
}

// WebhookSubmitter is the delivery contract required by BookingService.
type WebhookSubmitter interface {
	Submit(ctx context.Context, record any) webhook.Outcome
}

// BookingService validates, persists, and forwards room-booking requests.
type BookingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Seq issues per-year sequential submission ids.
	Seq *sequence.Sequencer
	// Hook delivers accepted records externally.
	Hook WebhookSubmitter

	// OpenTime and CloseTime bound the venue's operating window (HH:MM).
	OpenTime  string
	CloseTime string
	// MinMinutes is the minimum booking duration.
	MinMinutes int
	// CleaningFee is the flat surcharge applied when cleaning is requested.
	CleaningFee int
	// Cooldown is the minimum interval between submissions from one session.
	Cooldown time.Duration

	// now is the clock; replaceable in tests.
	now func() time.Time

	mu         sync.Mutex
	lastSubmit map[string]time.Time
	inFlight   map[string]struct{}
}

// NewBookingService constructs a BookingService with the venue defaults.
func NewBookingService(db *gorm.DB, seq *sequence.Sequencer, hook WebhookSubmitter) *BookingService {
	return &BookingService{
		DB:          db,
		Seq:         seq,
		Hook:        hook,
		OpenTime:    "07:00",
		CloseTime:   "22:00",
		MinMinutes:  30,
		CleaningFee: 20,
		Cooldown:    5 * time.Second,
		now:         time.Now,
		lastSubmit:  map[string]time.Time{},
		inFlight:    map[string]struct{}{},
	}
}

// Submit validates the form, constructs the normalized Booking, persists it,
// and attempts webhook delivery. The submission id is consumed once validation
// passes, even when delivery later fails.
//
// A *ValidationError carries all rule violations; ErrSubmissionInFlight and
// ErrCooldown are the duplicate-submission guards. The webhook outcome is
// returned alongside the record so the handler can present degraded-success
// states ("saved locally only") without treating them as failures.
func (s *BookingService) Submit(ctx context.Context, sessionID string, in BookingInput) (*domain.Booking, webhook.Outcome, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if problems := s.Validate(in); len(problems) > 0 {
		return nil, webhook.Outcome{}, &ValidationError{Problems: problems}
	}

	if err := s.acquire(sessionID); err != nil {
		return nil, webhook.Outcome{}, err
	}
	defer s.release(sessionID)

	booking := s.normalize(sessionID, in)
	if err := repo.CreateBooking(s.DB.WithContext(ctx), booking); err != nil {
		return nil, webhook.Outcome{}, err
	}

	outcome := s.Hook.Submit(ctx, booking)
	span.SetAttributes(
		attribute.String("booking.submission_id", booking.SubmissionID),
		attribute.String("webhook.status", string(outcome.Status)),
	)
	return booking, outcome, nil
}

// ListPage returns paginated bookings for a session, newest first.
func (s *BookingService) ListPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Booking, int64, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountBookings(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Booking{}, 0, nil
	}

	items, err := repo.ListBookingsPage(s.DB.WithContext(ctx), sessionID, offset, pageSize)
	return items, total, err
}

// Validate checks every rule independently and returns one message per failed
// rule. An empty slice means the form is acceptable.
func (s *BookingService) Validate(in BookingInput) []string {
	var problems []string

	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "Name is required.")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		problems = append(problems, "Valid email is required.")
	}
	if strings.TrimSpace(in.Address) == "" {
		problems = append(problems, "Address is required.")
	}
	if in.People < 1 {
		problems = append(problems, "Number of people must be at least 1.")
	}

	problems = append(problems, s.validateSlot("", in.Date, in.Start, in.End)...)
	for i, b := range in.Backups {
		if i >= 2 {
			problems = append(problems, "At most two backup slots are allowed.")
			break
		}
		if b.IsZero() {
			continue
		}
		label := " for backup " + strconv.Itoa(i+1)
		problems = append(problems, s.validateSlot(label, b.Date, b.Start, b.End)...)
	}

	return problems
}

// validateSlot checks one date/time pair. The label suffix distinguishes
// backup slots in the produced messages ("" for the primary slot).
func (s *BookingService) validateSlot(label, date, start, end string) []string {
	var problems []string

	if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
		problems = append(problems, "A valid date (YYYY-MM-DD) is required"+label+".")
	}

	startMin, okStart := parseClock(start)
	endMin, okEnd := parseClock(end)
	if !okStart {
		problems = append(problems, "A valid start time (HH:MM) is required"+label+".")
	}
	if !okEnd {
		problems = append(problems, "A valid end time (HH:MM) is required"+label+".")
	}
	if !okStart || !okEnd {
		return problems
	}

	openMin, _ := parseClock(s.OpenTime)
	closeMin, _ := parseClock(s.CloseTime)
	if startMin < openMin || startMin > closeMin || endMin < openMin || endMin > closeMin {
		problems = append(problems,
			"Times must be between "+s.OpenTime+" and "+s.CloseTime+label+".")
	}
	if startMin >= endMin {
		problems = append(problems, "End time must be after start time"+label+".")
	} else if endMin-startMin < s.MinMinutes {
		problems = append(problems,
			"Booking must be at least "+strconv.Itoa(s.MinMinutes)+" minutes"+label+".")
	}

	return problems
}

// acquire takes the per-session duplicate-submission guard.
func (s *BookingService) acquire(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[sessionID]; busy {
		return ErrSubmissionInFlight
	}
	if last, ok := s.lastSubmit[sessionID]; ok && s.now().Sub(last) < s.Cooldown {
		return ErrCooldown
	}
	s.inFlight[sessionID] = struct{}{}
	s.lastSubmit[sessionID] = s.now()
	return nil
}

// release drops the in-flight guard for the session.
func (s *BookingService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

// normalize builds the Booking record from validated input: trimmed text,
// zero-padded times, ISO date, title-cased room, cleaning fee, UTC timestamp,
// and a fresh submission id.
func (s *BookingService) normalize(sessionID string, in BookingInput) *domain.Booking {
	fee := 0
	if in.Cleaning {
		fee = s.CleaningFee
	}

	b := &domain.Booking{
		SessionID:    sessionID,
		SubmissionID: s.Seq.Next(),

		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
		People:  in.People,
		Room:    normalizeRoom(in.Room),

		Date:  normalizeDate(in.Date),
		Start: normalizeTime(in.Start),
		End:   normalizeTime(in.End),

		Organization:   strings.TrimSpace(in.Organization),
		Occasion:       strings.TrimSpace(in.Occasion),
		UsageFrequency: strings.TrimSpace(in.UsageFrequency),
		Notes:          strings.TrimSpace(in.Notes),

		Cleaning:    in.Cleaning,
		CleaningFee: fee,

		SubmittedAt: s.now().UTC(),
	}

	for i, slot := range in.Backups {
		if slot.IsZero() || i >= 2 {
			continue
		}
		normalized := &domain.BackupSlot{
			Date:  normalizeDate(slot.Date),
			Start: normalizeTime(slot.Start),
			End:   normalizeTime(slot.End),
		}
		if i == 0 {
			b.Backup1 = normalized
		} else {
			b.Backup2 = normalized
		}
	}
	return b
}

// parseClock parses an HH:MM wall-clock value into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// normalizeTime reformats a validated clock value as zero-padded HH:MM.
func normalizeTime(s string) string {
	min, ok := parseClock(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	h, m := min/60, min%60
	return pad2(h) + ":" + pad2(m)
}

// normalizeDate reformats a validated date as an ISO-8601 calendar date.
func normalizeDate(s string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.Format("2006-01-02")
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// normalizeRoom trims and title-cases the room name ("study room" →
// "Study Room"). Unknown rooms are kept as free text. The caser is built per
// call: cases.Caser carries transform state and must not be shared across
// concurrent submissions.
func normalizeRoom(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	titleCaser := cases.Title(language.English)
	return titleCaser.String(strings.ToLower(s))
}
