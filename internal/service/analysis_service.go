package service

import (
	"context"
	"time"

	"go-image-query/internal/encoder"
	apperrors "go-image-query/internal/errors"
	"go-image-query/internal/genai"
	"go-image-query/internal/observer"
	"go-image-query/internal/strategy"
)

// Generator is the slice of the request client the orchestrator needs.
type Generator interface {
	Generate(ctx context.Context, req *genai.GenerateRequest) (*genai.GenerateResponse, error)
}

// AnalysisService answers free-form and canned questions about an uploaded
// image by forwarding both to the generative endpoint.
//
// The service itself holds no per-submission state and assumes at most one
// submission is being processed at a time; callers that expose it to
// concurrent users are responsible for serializing re-entry (there is no
// internal queue or cancellation).
type AnalysisService interface {
	Analyze(ctx context.Context, questionText string, image *encoder.UploadedImage) *Outcome
	QuickAction(ctx context.Context, actionName string, image *encoder.UploadedImage) *Outcome
	QuickActionNames() []string
}

type analysisService struct {
	generator Generator
	actions   *strategy.Registry
	events    observer.Observer
}

// NewAnalysisService creates the orchestrator. events may be nil.
func NewAnalysisService(generator Generator, actions *strategy.Registry, events observer.Observer) AnalysisService {
	return &analysisService{
		generator: generator,
		actions:   actions,
		events:    events,
	}
}

// Analyze validates the inputs, sends one question-plus-image turn upstream
// and extracts the answer text. Every failure is recovered into the returned
// Outcome; nothing propagates as a raw error.
func (s *analysisService) Analyze(ctx context.Context, questionText string, image *encoder.UploadedImage) *Outcome {
	if err := validateSubmission(questionText, image); err != nil {
		return failedOutcome(StateInvalid, err)
	}

	s.emit(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Timestamp: time.Now(),
		Question:  questionText,
		MediaType: image.MediaType,
	})

	// One user turn, question first, image second. The downstream model
	// builds context in part order, so this ordering must be preserved.
	req := &genai.GenerateRequest{
		Contents: []genai.Content{{
			Role: "user",
			Parts: []genai.Part{
				genai.TextPart(questionText),
				genai.ImagePart(image.MediaType, image.EncodedData),
			},
		}},
	}

	resp, err := s.generator.Generate(ctx, req)
	if err != nil {
		return s.fail(ctx, image, classify(err))
	}

	answer, shapeErr := extractAnswer(resp)
	if shapeErr != nil {
		return s.fail(ctx, image, shapeErr)
	}

	s.emit(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisCompleted,
		Timestamp: time.Now(),
		MediaType: image.MediaType,
	})
	return succeededOutcome(answer)
}

// QuickAction behaves exactly like Analyze with the question supplied by the
// named canned prompt instead of free-form input.
func (s *analysisService) QuickAction(ctx context.Context, actionName string, image *encoder.UploadedImage) *Outcome {
	action, err := s.actions.Resolve(actionName)
	if err != nil {
		return failedOutcome(StateInvalid, classify(err))
	}
	return s.Analyze(ctx, action.Prompt(), image)
}

// QuickActionNames lists the registered canned actions.
func (s *analysisService) QuickActionNames() []string {
	return s.actions.Names()
}

func (s *analysisService) fail(ctx context.Context, image *encoder.UploadedImage, err *apperrors.AppError) *Outcome {
	s.emit(ctx, observer.AnalysisEvent{
		EventType:    observer.AnalysisFailed,
		Timestamp:    time.Now(),
		MediaType:    image.MediaType,
		ErrorMessage: err.Message,
	})
	return failedOutcome(StateFailed, err)
}

func (s *analysisService) emit(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.OnEvent(ctx, event)
	}
}

// validateSubmission enforces the submission invariant: both a question and
// a complete encoded image must be present before any network call.
func validateSubmission(questionText string, image *encoder.UploadedImage) *apperrors.AppError {
	if image == nil || questionText == "" || image.MediaType == "" {
		return apperrors.NewValidationError("missing image or question", nil)
	}
	return nil
}

// extractAnswer navigates the expected response shape:
// first candidate -> content -> first part -> text.
func extractAnswer(resp *genai.GenerateResponse) (string, *apperrors.AppError) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperrors.NewResponseShapeError("unexpected response structure", nil)
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", apperrors.NewResponseShapeError("unexpected response structure", nil)
	}
	text := content.Parts[0].Text
	if text == "" {
		return "", apperrors.NewResponseShapeError("unexpected response structure", nil)
	}
	return text, nil
}

// classify guarantees a typed error at the orchestrator boundary even if a
// collaborator returned a plain one.
func classify(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.NewInternalError("analysis failed", err)
}
