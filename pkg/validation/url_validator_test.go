package validation

import (
	"testing"

	apperrors "go-image-query/internal/errors"
)

func TestURLValidator_ValidateImageURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https URL", "https://example.com/image.png", false},
		{"valid http URL", "http://example.com/image.jpg", false},
		{"empty URL", "", true},
		{"whitespace only", "   ", true},
		{"missing scheme", "example.com/image.png", true},
		{"disallowed scheme", "ftp://example.com/image.png", true},
		{"missing host", "https:///image.png", true},
	}

	validator := NewURLValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestURLValidator_HostAllowList(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"cdn.example.com"})

	if err := validator.ValidateImageURL("https://cdn.example.com/a.png"); err != nil {
		t.Errorf("allowed host rejected: %v", err)
	}
	if err := validator.ValidateImageURL("https://evil.example.com/a.png"); err == nil {
		t.Error("disallowed host accepted")
	}
	if err := validator.ValidateImageURL("http://cdn.example.com/a.png"); err == nil {
		t.Error("disallowed scheme accepted")
	}
}
