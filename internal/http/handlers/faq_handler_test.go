package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/averko/go-room-assistant/internal/faq"
)

func getFAQ(t *testing.T, faqSvc FAQProvider) FAQStatusResponse {
	t.Helper()
	r := newTestRouter(&fakeChatSvc{}, &fakeBookingSvc{}, faqSvc)

	req := httptest.NewRequest(http.MethodGet, "/faq", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp FAQStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	return resp
}

func TestGetFAQ_Loaded(t *testing.T) {
	resp := getFAQ(t, &fakeFAQ{
		f:   faq.FAQ{Text: "pool hours", Truncated: true},
		src: "prompts/faq.pdf",
	})
	if !resp.Available || resp.Chars != 10 || !resp.Truncated {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Source != "prompts/faq.pdf" {
		t.Fatalf("source = %q", resp.Source)
	}
}

func TestGetFAQ_Missing(t *testing.T) {
	resp := getFAQ(t, &fakeFAQ{src: "prompts/faq.pdf"})
	if resp.Available || resp.Chars != 0 || resp.Truncated {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGetFAQ_ExtractionFailureDegrades(t *testing.T) {
	resp := getFAQ(t, &fakeFAQ{err: errors.New("parse pdf: broken"), src: "prompts/faq.pdf"})
	if resp.Available {
		t.Fatalf("resp = %+v, want unavailable", resp)
	}
	if resp.Source != "prompts/faq.pdf" {
		t.Fatalf("source = %q", resp.Source)
	}
}
