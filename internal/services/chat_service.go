// Package services – ChatService
//
// This file implements ChatService, the application-level component that owns
// the lifecycle of chat turns. It validates prompts, assembles the trailing
// conversation window, streams the assistant reply through the configured
// Streamer, and persists the user/assistant message pair for the session.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// session identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/averko/go-room-assistant/internal/domain"
	"github.com/averko/go-room-assistant/internal/llm"
	"github.com/averko/go-room-assistant/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FallbackReply is stored and shown when the stream completes without
// producing any text.
const FallbackReply = "I couldn't generate a response. Please try again."

// Streamer is the chat-completion contract required by ChatService.
// Implementations deliver reply text incrementally through emit and surface
// their own failures as user-facing fragments rather than errors.
type Streamer interface {
	Stream(ctx context.Context, history []llm.Turn, emit func(string)) error
}

// ChatService coordinates message persistence and streamed assistant replies.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// LLM produces the streamed assistant reply.
	LLM Streamer

	// MaxHistory caps how many trailing messages are sent as context.
	MaxHistory int
	// MaxPromptRunes caps accepted prompts by rune length.
	MaxPromptRunes int
}

// NewChatService constructs a ChatService with the conventional context
// window and prompt limits.
func NewChatService(db *gorm.DB, streamer Streamer) *ChatService {
	return &ChatService{
		DB:             db,
		LLM:            streamer,
		MaxHistory:     12,
		MaxPromptRunes: 2000,
	}
}

// Answer validates the prompt, persists it as a user message, streams the
// assistant reply fragment by fragment through emit, and persists the
// accumulated reply as one assistant message.
//
// An empty accumulated reply is replaced with FallbackReply. The returned
// error is nil on every provider failure path (those surface as reply text);
// it is non-nil for invalid prompts, persistence failures, and a cancelled
// stream. On cancellation the user message is already stored but no assistant
// message is written.
func (s *ChatService) Answer(ctx context.Context, sessionID, prompt string, emit func(string)) (*domain.Message, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	if _, err := repo.CreateMessage(s.DB.WithContext(ctx), sessionID, domain.RoleUser, prompt); err != nil {
		return nil, err
	}

	window := s.MaxHistory
	if window <= 0 {
		window = 12
	}
	history, err := repo.ListRecentMessages(s.DB.WithContext(ctx), sessionID, window)
	if err != nil {
		return nil, err
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}

	var buf strings.Builder
	streamErr := s.LLM.Stream(ctx, turns, func(frag string) {
		buf.WriteString(frag)
		if emit != nil {
			emit(frag)
		}
	})
	if streamErr != nil {
		return nil, streamErr
	}

	reply := buf.String()
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
		if emit != nil {
			emit(reply)
		}
	}

	return repo.CreateMessage(s.DB.WithContext(ctx), sessionID, domain.RoleAssistant, reply)
}

// ListPage returns paginated messages for a session, oldest first.
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *ChatService) ListPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/ChatService")
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

	total, err := repo.CountMessages(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), sessionID, offset, pageSize)
	return items, total, err
}
