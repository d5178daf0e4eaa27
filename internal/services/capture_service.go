package services

import (
	"context"
	"errors"

	"gastos/internal/assist"
	"gastos/internal/capture"
	"gastos/internal/log"
	"gastos/internal/taxonomy"
)

// CaptureService runs utterances through the capture pipeline and optionally
// asks the assistant to rephrase free-form descriptions first.
type CaptureService struct {
	pipeline  *capture.Pipeline
	assistant *assist.Assistant
	taxonomy  *taxonomy.Store
	source    Refresher
	logger    *log.Logger
}

// NewCaptureService accepts a nil assistant.
func NewCaptureService(pipeline *capture.Pipeline, assistant *assist.Assistant, tax *taxonomy.Store, logger *log.Logger) *CaptureService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CaptureService{
		pipeline:  pipeline,
		assistant: assistant,
		taxonomy:  tax,
		logger:    logger.WithComponent(log.ComponentCapture),
	}
}

// ReloadFrom makes captures see categories edited by other processes.
func (s *CaptureService) ReloadFrom(r Refresher) {
	s.source = r
}

// Capture reads one utterance. Nothing is stored; the caller confirms the
// candidate through the expense service.
func (s *CaptureService) Capture(ctx context.Context, text string) (capture.CandidateExpense, error) {
	refresh(ctx, s.source, s.logger)
	cand, err := s.pipeline.Capture(text)
	if err != nil {
		s.logger.InfoContext(ctx, "Capture rejected", log.FieldError, err)
		return capture.CandidateExpense{}, err
	}
	s.logger.InfoContext(ctx, "Candidate expense built",
		log.FieldOperation, log.OpCapture,
		log.FieldAmountCents, cand.Expense.Amount.Cents,
		log.FieldCategory, cand.Expense.Category,
		log.FieldSubcategory, cand.Expense.Subcategory,
		log.FieldConfidence, cand.Confidence[capture.FieldCategory],
		log.FieldNeedsConfirm, cand.NeedsConfirmation)
	return cand, nil
}

// CaptureDescribed tries the text as-is and asks the assistant to rephrase it
// only when no amount could be read. It returns the utterance actually used.
func (s *CaptureService) CaptureDescribed(ctx context.Context, description string) (capture.CandidateExpense, string, error) {
	cand, err := s.Capture(ctx, description)
	if !errors.Is(err, capture.ErrInsufficientData) || s.assistant == nil || !s.assistant.Enabled() {
		return cand, description, err
	}
	utterance := s.assistant.Suggest(ctx, description, s.taxonomy.ListCategories())
	cand, err = s.Capture(ctx, utterance)
	return cand, utterance, err
}
