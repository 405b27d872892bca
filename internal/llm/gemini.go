// Package llm – Gemini streaming client
//
// This file wraps the Google generative-ai SDK behind a small streaming
// facade. A Client binds an API key and a default model name; each Stream call
// converts the role-tagged history into Gemini's alternating-turn content
// format and delivers reply text incrementally through a callback.
//
// Failures never cross the boundary as errors: missing credentials, provider
// rate limits, and generic upstream failures each surface as exactly one
// user-facing fragment, after which the stream ends. Retry is always a
// user-initiated resubmission.
package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Conversation role tags accepted in a Turn. Assistant turns are mapped to
// Gemini's "model" role on the wire; anything else is sent as "user".
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User-facing fragments emitted on the failure paths.
const (
	// MsgMissingKey is emitted when no API key is configured.
	MsgMissingKey = "GEMINI_API_KEY is missing. Set it in your environment or secrets file."
	// MsgRateLimited is emitted when the provider signals quota exhaustion.
	MsgRateLimited = "You've hit the free-tier rate limit. Please wait a bit and try again."
	// MsgGenericFailure is emitted on any other upstream failure.
	MsgGenericFailure = "Sorry, something went wrong while generating the response. Please try again."
)

// Turn is one role-tagged message of the conversation history.
type Turn struct {
	Role    string
	Content string
}

// Client streams chat completions from Gemini.
//
// The underlying SDK client is created lazily on first use, and generative
// model handles (model name bound to the system instruction) are memoized for
// the process lifetime.
type Client struct {
	// APIKey authenticates against the Gemini API. Empty means unconfigured.
	APIKey string
	// Model is the default model name used when Stream is called.
	Model string
	// System is the system instruction bound into every model handle.
	System string

	mu     sync.Mutex
	client *genai.Client
	models map[string]*genai.GenerativeModel
}

// NewClient constructs a Client. No network activity happens here; the SDK
// connection is established on the first Stream call.
func NewClient(apiKey, model, system string) *Client {
	return &Client{
		APIKey: apiKey,
		Model:  model,
		System: system,
		models: map[string]*genai.GenerativeModel{},
	}
}

// streamGenerate performs the actual streaming request.
// Overridable in tests to exercise Stream without network access.
var streamGenerate = defaultStreamGenerate

// Stream sends history as one streaming generation request and invokes emit
// for every non-empty text fragment as it arrives.
//
// The last entry of history is the pending user turn; everything before it is
// prior conversation. Error conditions emit a single user-facing fragment (see
// MsgMissingKey, MsgRateLimited, MsgGenericFailure) and return nil; the only
// non-nil return is a context cancellation, so callers can distinguish an
// aborted stream from a completed one.
func (c *Client) Stream(ctx context.Context, history []Turn, emit func(string)) error {
	if strings.TrimSpace(c.APIKey) == "" {
		emit(MsgMissingKey)
		return nil
	}
	if len(history) == 0 {
		emit(MsgGenericFailure)
		return nil
	}

	model, err := c.model(ctx)
	if err != nil {
		emit(classify(err))
		return nil
	}

	contents := toContents(history)
	if err := streamGenerate(ctx, model, contents, emit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		emit(classify(err))
	}
	return nil
}

// model returns the memoized handle for the configured (model, system) pair,
// creating the SDK client on first use.
func (c *Client) model(ctx context.Context) (*genai.GenerativeModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.Model + "\x00" + c.System
	if m, ok := c.models[key]; ok {
		return m, nil
	}
	if c.client == nil {
		cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
		if err != nil {
			return nil, err
		}
		c.client = cl
	}
	m := c.client.GenerativeModel(c.Model)
	if strings.TrimSpace(c.System) != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(c.System)}}
	}
	c.models[key] = m
	return m, nil
}

// Close releases the underlying SDK connection, if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.models = map[string]*genai.GenerativeModel{}
	return err
}

// toContents converts the history into Gemini's alternating-turn format.
func toContents(history []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}
	return out
}

// defaultStreamGenerate replays prior turns as chat history and streams the
// reply to the pending user turn.
func defaultStreamGenerate(ctx context.Context, model *genai.GenerativeModel, contents []*genai.Content, emit func(string)) error {
	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	it := cs.SendMessageStream(ctx, contents[len(contents)-1].Parts...)
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					emit(string(text))
				}
			}
		}
	}
}

// classify maps an upstream error to its user-facing fragment.
func classify(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 429 {
		return MsgRateLimited
	}
	msg := err.Error()
	if strings.Contains(msg, "ResourceExhausted") || strings.Contains(msg, "429") {
		return MsgRateLimited
	}
	return MsgGenericFailure
}
