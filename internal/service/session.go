package service

import (
	"context"
	"io"

	"go-image-query/internal/encoder"
)

// Session models the mutable state the original form page kept: the image
// currently attached and the outcome of the last submission. It is meant for
// a single caller; there is no internal locking and only one submission
// should be in flight at a time.
type Session struct {
	service AnalysisService

	image   *encoder.UploadedImage
	outcome *Outcome
}

// NewSession creates an idle session.
func NewSession(service AnalysisService) *Session {
	return &Session{service: service, outcome: &Outcome{State: StateIdle}}
}

// AttachDataURI replaces the attached image with one parsed from a data URI.
// Any previously held image, result, and error state is cleared before the
// parse so a failed parse never leaves stale state behind.
func (s *Session) AttachDataURI(uri string) error {
	s.reset()
	img, err := encoder.ParseDataURI(uri)
	if err != nil {
		return err
	}
	s.image = img
	return nil
}

// AttachReader replaces the attached image with one encoded from a reader,
// with the same clear-first semantics as AttachDataURI.
func (s *Session) AttachReader(r io.Reader, declaredType string) error {
	s.reset()
	img, err := encoder.EncodeReader(r, declaredType)
	if err != nil {
		return err
	}
	s.image = img
	return nil
}

// Submit runs one free-form submission against the attached image.
func (s *Session) Submit(ctx context.Context, questionText string) *Outcome {
	s.outcome = s.service.Analyze(ctx, questionText, s.image)
	return s.outcome
}

// SubmitQuickAction runs one canned submission against the attached image.
func (s *Session) SubmitQuickAction(ctx context.Context, actionName string) *Outcome {
	s.outcome = s.service.QuickAction(ctx, actionName, s.image)
	return s.outcome
}

// Image returns the currently attached image, or nil.
func (s *Session) Image() *encoder.UploadedImage {
	return s.image
}

// Outcome returns the last submission outcome; an idle outcome before any
// submission.
func (s *Session) Outcome() *Outcome {
	return s.outcome
}

func (s *Session) reset() {
	s.image = nil
	s.outcome = &Outcome{State: StateIdle}
}
