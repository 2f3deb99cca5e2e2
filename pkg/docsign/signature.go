package docsign

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

type SourceMode string

const (
	SourceModeDraw   SourceMode = "draw"
	SourceModeUpload SourceMode = "upload"
	SourceModeText   SourceMode = "text"
)

func (m SourceMode) Valid() bool {
	switch m {
	case SourceModeDraw, SourceModeUpload, SourceModeText:
		return true
	}
	return false
}

func ParseSourceMode(s string) (SourceMode, error) {
	m := SourceMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid signature mode %q, expected draw, upload or text", s)
	}
	return m, nil
}

// Position is a pixel offset from the top-left corner of the rendered page.
type Position struct {
	X float64 `json:"x" form:"x"`
	Y float64 `json:"y" form:"y"`
}

type Size struct {
	Width  float64 `json:"width" form:"width"`
	Height float64 `json:"height" form:"height"`
}

func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

var DefaultPosition = Position{X: 50, Y: 50}

// SignatureArtifact is the normalized image produced by any of the input modes.
type SignatureArtifact struct {
	// data URL, e.g. "data:image/png;base64,...."
	ImageData     string
	SourceMode    SourceMode
	FileExtension string
	// What a viewer shows while positioning. A preview file path for uploads, the data URL otherwise.
	DisplaySource string
	Width         int
	Height        int
}

const dataURLBase64Marker = ";base64,"

func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + dataURLBase64Marker + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
// A bare base64 string is accepted and reported as image/png.
func DecodeDataURL(s string) (string, []byte, error) {
	if s == "" {
		return "", nil, errors.New("empty data url")
	}

	mimeType := "image/png"
	payload := s
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, dataURLBase64Marker)
		if idx < 0 {
			return "", nil, errors.New("data url is not base64 encoded")
		}
		mimeType = s[len("data:"):idx]
		payload = s[idx+len(dataURLBase64Marker):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return mimeType, data, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func newPNGArtifact(img image.Image, mode SourceMode) (*SignatureArtifact, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	dataURL := EncodeDataURL("image/png", data)
	b := img.Bounds()
	return &SignatureArtifact{
		ImageData:     dataURL,
		SourceMode:    mode,
		FileExtension: "png",
		DisplaySource: dataURL,
		Width:         b.Dx(),
		Height:        b.Dy(),
	}, nil
}
