// Chat HTTP handlers.
//
// This file exposes the conversational endpoints:
//   - POST /chat/messages   (send a prompt, stream the assistant reply as SSE)
//   - GET  /chat/messages   (list the session's messages, paginated)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate to
// the application services, and translate results into HTTP responses.
//
// Streaming:
// The POST endpoint replies as a server-sent event stream. Each reply fragment
// arrives as a "delta" event; the final persisted assistant message is sent as
// a single "done" event. Provider failures surface inside the stream as the
// user-facing reply text, never as transport errors.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/averko/go-room-assistant/internal/domain"
	"github.com/averko/go-room-assistant/internal/faq"
	"github.com/averko/go-room-assistant/internal/services"
	"github.com/averko/go-room-assistant/internal/utils"
	"github.com/averko/go-room-assistant/internal/webhook"
)

//
// Service contracts (context-aware)
//

// ChatService defines the conversational operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// Answer appends a user prompt, streams the reply through emit, and
	// persists the accumulated assistant message.
	Answer(ctx context.Context, sessionID, prompt string, emit func(string)) (*domain.Message, error)
	// ListPage returns a page of messages for a session and the total count.
	ListPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
}

// BookingService defines the room-booking operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BookingService interface {
	// Submit validates, persists, and forwards a booking request.
	Submit(ctx context.Context, sessionID string, in services.BookingInput) (*domain.Booking, webhook.Outcome, error)
	// ListPage returns a page of bookings for a session and the total count.
	ListPage(ctx context.Context, sessionID string, page, pageSize int) ([]domain.Booking, int64, error)
}

// FAQProvider exposes the grounding material status for the FAQ endpoint.
type FAQProvider interface {
	// Load returns the current FAQ text (cached per content hash).
	Load() (faq.FAQ, error)
	// Source returns the configured FAQ file path.
	Source() string
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for chat, bookings, and FAQ status.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	chatSvc    ChatService
	bookingSvc BookingService
	faqSvc     FAQProvider
}

// New constructs and returns a Handlers instance bound to the given services.
func New(chatSvc ChatService, bookingSvc BookingService, faqSvc FAQProvider) *Handlers {
	return &Handlers{chatSvc: chatSvc, bookingSvc: bookingSvc, faqSvc: faqSvc}
}

// sessionID extracts the caller's session identity from the X-Session-ID
// header. Sessions are client-chosen opaque strings; without one, all requests
// share the "demo-session" bucket. It never touches c.Request if it's nil.
func sessionID(c *gin.Context) string {
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-Session-ID")); h != "" {
			return h
		}
	}
	return "demo-session"
}

//
// DTOs
//

// PostMessageRequest is the JSON payload for sending a user message.
//
// Content is normalized by the handler (line endings and excessive blank
// lines) before being passed to the service layer. The service also enforces
// a maximum rune count, which can be configured in ChatService.
type PostMessageRequest struct {
	// Content is the user prompt. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"Can I reserve the lounge for a birthday party?"`
}

// PostMessageResponse is the payload of the final "done" stream event.
type PostMessageResponse struct {
	// Message is the persisted assistant reply.
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse contains a page of session messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxPromptRunes inspects the concrete ChatService for a configured
// prompt-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxPromptRunes(chatSvc ChatService) int {
	const fallback = 2000
	if cs, ok := chatSvc.(*services.ChatService); ok {
		if cs.MaxPromptRunes > 0 {
			return cs.MaxPromptRunes
		}
	}
	return fallback
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message and stream the assistant reply
// @Description Appends a user message to the session and streams the assistant
// @Description reply as server-sent events: "delta" events carry text fragments
// @Description and a final "done" event carries the persisted message.
// @Tags        Chat
// @Accept      json
// @Produce     text/event-stream
//
// @Param       X-Session-ID  header  string  false  "Session identity (defaults to demo-session)"  example(sess-42)
// @Param       body          body    handlers.PostMessageRequest  true  "User message payload"
//
// @Success     200  {string}  string                  "SSE stream of delta/done events"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge, before the stream
	// starts and a JSON error can no longer be delivered.
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	maxRunes := discoverMaxPromptRunes(h.chatSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		return
	}

	h.streamReply(c, ctx, sessionID(c), content)
}

// streamReply switches the response to SSE and relays the assistant reply.
func (h *Handlers) streamReply(c *gin.Context, ctx context.Context, sid, content string) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-store")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emit := func(frag string) {
		c.SSEvent("delta", frag)
		c.Writer.Flush()
	}

	m, err := h.chatSvc.Answer(ctx, sid, content, emit)
	if err != nil {
		// The client is gone on cancellation; nothing useful can be written.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.SSEvent("error", gin.H{"code": ErrCodeAnswerFailed, "message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", PostMessageResponse{Message: m})
	c.Writer.Flush()
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in the session
// @Description Returns a paginated list of messages for the caller's session,
// @Description oldest first.
// @Tags        Chat
// @Produce     json
//
// @Param       X-Session-ID  header  string  false "Session identity (defaults to demo-session)"  example(sess-42)
// @Param       page          query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size     query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.ListPage(ctx, sessionID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
