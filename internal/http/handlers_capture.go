package http

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"gastos/internal/log"
)

const maxUtteranceRunes = 500

type captureRequest struct {
	Text string `json:"text"`
	// Describe lets the assistant rephrase text that has no readable amount.
	Describe bool `json:"describe"`
}

// handleCapture turns one utterance into a candidate expense. Nothing is
// stored; the client confirms through POST /api/expenses.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	text := sanitizeInput(req.Text)
	if text == "" {
		UnprocessableEntityError("text is required").Write(w)
		return
	}
	if utf8.RuneCountInString(text) > maxUtteranceRunes {
		UnprocessableEntityError("text too long").Write(w)
		return
	}

	if !req.Describe {
		cand, err := s.deps.Capture.Capture(r.Context(), text)
		if err != nil {
			ServiceError(w, r, err)
			return
		}
		NewJSONResponse().Body(newCandidateView(cand)).Write(w)
		return
	}

	cand, utterance, err := s.deps.Capture.CaptureDescribed(r.Context(), text)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	v := newCandidateView(cand)
	if !strings.EqualFold(utterance, text) {
		v.Utterance = utterance
		log.FromContext(r.Context()).DebugContext(r.Context(), "Description rephrased",
			log.FieldOperation, log.OpCapture,
			"utterance", utterance)
	}
	NewJSONResponse().Body(v).Write(w)
}
