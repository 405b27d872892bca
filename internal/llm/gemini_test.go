package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

// withStream swaps the streaming seam for the duration of a test.
func withStream(t *testing.T, fn func(context.Context, *genai.GenerativeModel, []*genai.Content, func(string)) error) {
	t.Helper()
	prev := streamGenerate
	streamGenerate = fn
	t.Cleanup(func() { streamGenerate = prev })
}

func collect(frags *[]string) func(string) {
	return func(s string) { *frags = append(*frags, s) }
}

func TestStreamMissingKey(t *testing.T) {
	withStream(t, func(context.Context, *genai.GenerativeModel, []*genai.Content, func(string)) error {
		t.Fatal("streamGenerate called despite missing key")
		return nil
	})
	c := NewClient("  ", "gemini-2.5-flash-lite", "sys")

	var frags []string
	if err := c.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, collect(&frags)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(frags) != 1 || frags[0] != MsgMissingKey {
		t.Fatalf("fragments = %q, want single missing-key message", frags)
	}
}

func TestStreamEmptyHistory(t *testing.T) {
	c := NewClient("k", "m", "")
	var frags []string
	if err := c.Stream(context.Background(), nil, collect(&frags)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(frags) != 1 || frags[0] != MsgGenericFailure {
		t.Fatalf("fragments = %q", frags)
	}
}

func TestStreamDeliversFragments(t *testing.T) {
	var gotContents []*genai.Content
	withStream(t, func(_ context.Context, _ *genai.GenerativeModel, contents []*genai.Content, emit func(string)) error {
		gotContents = contents
		emit("Hello")
		emit(", world")
		return nil
	})
	c := NewClient("k", "gemini-2.5-flash-lite", "sys")

	history := []Turn{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	}
	var frags []string
	if err := c.Stream(context.Background(), history, collect(&frags)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(frags) != 2 || frags[0] != "Hello" || frags[1] != ", world" {
		t.Fatalf("fragments = %q", frags)
	}

	if len(gotContents) != 3 {
		t.Fatalf("contents = %d turns, want 3", len(gotContents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, want := range wantRoles {
		if gotContents[i].Role != want {
			t.Errorf("contents[%d].Role = %q, want %q", i, gotContents[i].Role, want)
		}
	}
}

func TestStreamRateLimited(t *testing.T) {
	withStream(t, func(context.Context, *genai.GenerativeModel, []*genai.Content, func(string)) error {
		return &googleapi.Error{Code: 429, Message: "quota exceeded"}
	})
	c := NewClient("k", "m", "")

	var frags []string
	if err := c.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, collect(&frags)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(frags) != 1 || frags[0] != MsgRateLimited {
		t.Fatalf("fragments = %q, want single rate-limit message", frags)
	}
}

func TestStreamGenericFailure(t *testing.T) {
	withStream(t, func(context.Context, *genai.GenerativeModel, []*genai.Content, func(string)) error {
		return errors.New("connection reset by peer")
	})
	c := NewClient("k", "m", "")

	var frags []string
	if err := c.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, collect(&frags)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(frags) != 1 || frags[0] != MsgGenericFailure {
		t.Fatalf("fragments = %q", frags)
	}
}

func TestStreamContextCancelled(t *testing.T) {
	withStream(t, func(ctx context.Context, _ *genai.GenerativeModel, _ []*genai.Content, _ func(string)) error {
		return ctx.Err()
	})
	c := NewClient("k", "m", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var frags []string
	err := c.Stream(ctx, []Turn{{Role: RoleUser, Content: "hi"}}, collect(&frags))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(frags) != 0 {
		t.Fatalf("fragments = %q, want none on cancellation", frags)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"googleapi 429", &googleapi.Error{Code: 429}, MsgRateLimited},
		{"googleapi 500", &googleapi.Error{Code: 500}, MsgGenericFailure},
		{"resource exhausted text", errors.New("rpc error: ResourceExhausted"), MsgRateLimited},
		{"429 in text", errors.New("http 429 too many requests"), MsgRateLimited},
		{"other", errors.New("boom"), MsgGenericFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); got != tc.want {
				t.Fatalf("classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
