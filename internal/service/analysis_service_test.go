package service

import (
	"context"
	"strings"
	"testing"

	"go-image-query/internal/encoder"
	apperrors "go-image-query/internal/errors"
	"go-image-query/internal/genai"
	"go-image-query/internal/strategy"
)

// fakeGenerator counts calls and replays a scripted result.
type fakeGenerator struct {
	calls    int
	lastReq  *genai.GenerateRequest
	response *genai.GenerateResponse
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, req *genai.GenerateRequest) (*genai.GenerateResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func answerResponse(text string) *genai.GenerateResponse {
	return &genai.GenerateResponse{
		Candidates: []genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{{Text: text}}},
		}},
	}
}

func validImage() *encoder.UploadedImage {
	return &encoder.UploadedImage{MediaType: "image/png", EncodedData: "AAAA"}
}

func newTestService(gen *fakeGenerator) AnalysisService {
	return NewAnalysisService(gen, strategy.DefaultRegistry(), nil)
}

func TestAnalyzeSuccess(t *testing.T) {
	gen := &fakeGenerator{response: answerResponse("a red bicycle")}
	svc := newTestService(gen)

	outcome := svc.Analyze(context.Background(), "what is shown?", validImage())

	if outcome.State != StateSucceeded {
		t.Fatalf("state = %s, want succeeded (failure: %+v)", outcome.State, outcome.Failure)
	}
	if outcome.AnswerText != "a red bicycle" {
		t.Errorf("answer = %q", outcome.AnswerText)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}

	// The request must carry one user turn with question first, image second.
	contents := gen.lastReq.Contents
	if len(contents) != 1 || contents[0].Role != "user" {
		t.Fatalf("contents = %+v", contents)
	}
	parts := contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("parts = %+v", parts)
	}
	if parts[0].Text != "what is shown?" {
		t.Errorf("first part = %+v, want question text", parts[0])
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("second part = %+v, want inline image", parts[1])
	}
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		image    *encoder.UploadedImage
	}{
		{"empty question", "", validImage()},
		{"nil image", "what is shown?", nil},
		{"image without media type", "what is shown?", &encoder.UploadedImage{EncodedData: "AAAA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: answerResponse("unused")}
			svc := newTestService(gen)

			outcome := svc.Analyze(context.Background(), tt.question, tt.image)

			if outcome.State != StateInvalid {
				t.Errorf("state = %s, want invalid", outcome.State)
			}
			if outcome.Failure == nil || outcome.Failure.Kind != apperrors.ErrorTypeValidation {
				t.Errorf("failure = %+v, want validation", outcome.Failure)
			}
			if !strings.Contains(outcome.Failure.Message, "missing image or question") {
				t.Errorf("message = %q", outcome.Failure.Message)
			}
			if gen.calls != 0 {
				t.Errorf("generator calls = %d, want 0 (no network on validation failure)", gen.calls)
			}
		})
	}
}

func TestAnalyzeResponseShape(t *testing.T) {
	tests := []struct {
		name     string
		response *genai.GenerateResponse
	}{
		{"no candidates", &genai.GenerateResponse{}},
		{"candidate without content", &genai.GenerateResponse{Candidates: []genai.Candidate{{}}}},
		{"content without parts", &genai.GenerateResponse{
			Candidates: []genai.Candidate{{Content: &genai.Content{Role: "model"}}},
		}},
		{"part without text", &genai.GenerateResponse{
			Candidates: []genai.Candidate{{Content: &genai.Content{
				Role:  "model",
				Parts: []genai.Part{{InlineData: &genai.InlineData{MimeType: "image/png"}}},
			}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response}
			svc := newTestService(gen)

			outcome := svc.Analyze(context.Background(), "what is shown?", validImage())

			if outcome.State != StateFailed {
				t.Errorf("state = %s, want failed", outcome.State)
			}
			if outcome.Failure == nil || outcome.Failure.Kind != apperrors.ErrorTypeResponseShape {
				t.Errorf("failure = %+v, want response shape", outcome.Failure)
			}
			if !strings.Contains(outcome.Failure.Message, "unexpected response structure") {
				t.Errorf("message = %q", outcome.Failure.Message)
			}
		})
	}
}

func TestAnalyzeMapsClientFailure(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.NewServerError("upstream unavailable after 3 attempts", nil)}
	svc := newTestService(gen)

	outcome := svc.Analyze(context.Background(), "what is shown?", validImage())

	if outcome.State != StateFailed {
		t.Fatalf("state = %s, want failed", outcome.State)
	}
	if outcome.Failure.Kind != apperrors.ErrorTypeServer {
		t.Errorf("kind = %s", outcome.Failure.Kind)
	}
	// The user-facing message embeds the original failure's text.
	if !strings.Contains(outcome.Failure.Message, "upstream unavailable after 3 attempts") {
		t.Errorf("message = %q", outcome.Failure.Message)
	}
}

func TestQuickAction(t *testing.T) {
	t.Run("resolves canned prompt", func(t *testing.T) {
		gen := &fakeGenerator{response: answerResponse("a street scene")}
		svc := newTestService(gen)

		outcome := svc.QuickAction(context.Background(), "describe", validImage())

		if outcome.State != StateSucceeded {
			t.Fatalf("state = %s (failure: %+v)", outcome.State, outcome.Failure)
		}
		if got := gen.lastReq.Contents[0].Parts[0].Text; !strings.Contains(got, "Describe this image") {
			t.Errorf("question sent = %q", got)
		}
	})

	t.Run("missing image fails like analyze", func(t *testing.T) {
		gen := &fakeGenerator{response: answerResponse("unused")}
		svc := newTestService(gen)

		outcome := svc.QuickAction(context.Background(), "describe", nil)

		if outcome.State != StateInvalid {
			t.Errorf("state = %s, want invalid", outcome.State)
		}
		if !strings.Contains(outcome.Failure.Message, "missing image or question") {
			t.Errorf("message = %q", outcome.Failure.Message)
		}
		if gen.calls != 0 {
			t.Errorf("generator calls = %d, want 0", gen.calls)
		}
	})

	t.Run("unknown action suggests nearest name", func(t *testing.T) {
		gen := &fakeGenerator{}
		svc := newTestService(gen)

		outcome := svc.QuickAction(context.Background(), "describ", validImage())

		if outcome.State != StateInvalid {
			t.Errorf("state = %s, want invalid", outcome.State)
		}
		if !strings.Contains(outcome.Failure.Message, `"describe"`) {
			t.Errorf("expected suggestion in %q", outcome.Failure.Message)
		}
		if gen.calls != 0 {
			t.Errorf("generator calls = %d, want 0", gen.calls)
		}
	})
}
