// FAQ status handler.
//
// Exposes GET /faq, which reports whether grounding material is loaded, where
// it came from, and whether it was truncated to fit the prompt budget. The
// truncation flag backs a user-visible warning in clients.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FAQStatusResponse describes the currently loaded grounding material.
type FAQStatusResponse struct {
	// Available reports whether any FAQ text is loaded.
	Available bool `json:"available"`
	// Source is the configured FAQ file path.
	Source string `json:"source"`
	// Chars is the loaded text length in characters.
	Chars int `json:"chars"`
	// Truncated reports whether the text was cut to the prompt budget.
	Truncated bool `json:"truncated"`
}

// GetFAQ godoc
// @ID          getFAQ
// @Summary     Report FAQ grounding status
// @Description Returns whether FAQ text is loaded, its source path, character
// @Description count, and whether it was truncated for prompt size.
// @Tags        FAQ
// @Produce     json
//
// @Success     200  {object} handlers.FAQStatusResponse
// @Router      /faq [get]
func (h *Handlers) GetFAQ(c *gin.Context) {
	f, err := h.faqSvc.Load()
	if err != nil {
		// Extraction failures degrade to "no FAQ"; report, don't fail.
		ok(c, http.StatusOK, FAQStatusResponse{Source: h.faqSvc.Source()})
		return
	}
	ok(c, http.StatusOK, FAQStatusResponse{
		Available: f.Available(),
		Source:    h.faqSvc.Source(),
		Chars:     f.Chars(),
		Truncated: f.Truncated,
	})
}
