package encoder

import (
	"encoding/base64"
	"io"
	"net/http"
	"regexp"
	"strings"

	apperrors "go-image-query/internal/errors"
)

// UploadedImage is an encoded image payload ready for embedding in a JSON
// request: a MIME media type plus base64 text without any scheme prefix.
// MediaType and EncodedData are always produced together or not at all.
type UploadedImage struct {
	MediaType   string `json:"media_type"`
	EncodedData string `json:"encoded_data"`
}

// mediaTypePattern extracts the media type from a data URI prefix,
// e.g. "data:image/png;base64" yields "image/png".
var mediaTypePattern = regexp.MustCompile(`:(.*?);`)

// ParseDataURI converts a self-describing data URI of the form
// "data:<mediatype>;base64,<payload>" into an UploadedImage. The payload
// segment is already text-safe base64 and is kept as-is.
func ParseDataURI(uri string) (*UploadedImage, error) {
	segments := strings.Split(uri, ",")
	if len(segments) != 2 {
		return nil, apperrors.NewEncodingError("malformed data", nil)
	}

	match := mediaTypePattern.FindStringSubmatch(segments[0])
	if match == nil {
		return nil, apperrors.NewEncodingError("unparseable media type", nil)
	}

	return &UploadedImage{
		MediaType:   match[1],
		EncodedData: segments[1],
	}, nil
}

// EncodeBytes base64-encodes raw image bytes. The declared media type wins
// when present; otherwise the type is sniffed from the content.
func EncodeBytes(data []byte, declaredType string) *UploadedImage {
	mediaType := strings.TrimSpace(declaredType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	return &UploadedImage{
		MediaType:   mediaType,
		EncodedData: base64.StdEncoding.EncodeToString(data),
	}
}

// EncodeReader reads the full content of r and encodes it. An I/O failure
// during the read surfaces as an encoding error.
func EncodeReader(r io.Reader, declaredType string) (*UploadedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewEncodingError("read failed", err)
	}
	return EncodeBytes(data, declaredType), nil
}
