package docsign

import "math"

// PlacementRequest is what the compositor needs to burn a signature into a page. Position and
// PDFPageDimensions share the same pixel space: the page as it was rendered on screen.
type PlacementRequest struct {
	DocumentID             string     `json:"-"`
	PageNumber             int        `json:"pageNumber"`
	SignatureData          string     `json:"signatureData"`
	SignaturePosition      Position   `json:"signaturePosition"`
	PDFPageDimensions      Size       `json:"pdfPageDimensions"`
	SignatureType          SourceMode `json:"signatureType"`
	SignatureFileExtension string     `json:"signatureFileExtension"`
}

const errMsgNoPageDimensions = "could not determine PDF page dimensions for signature placement"

// BuildPlacementRequest pairs the artifact and overlay position with the rendered page size
// read at submit time. The position is clamped into that size.
func BuildPlacementRequest(documentID string, page int, artifact *SignatureArtifact, pos Position, rendered Size) (*PlacementRequest, error) {
	if artifact == nil || artifact.ImageData == "" {
		return nil, NewValidationError(ErrMsgEmptySignature)
	}
	if rendered.IsZero() {
		return nil, &PlacementError{Message: errMsgNoPageDimensions}
	}
	if page < 1 {
		page = 1
	}

	ext := artifact.FileExtension
	if ext == "" {
		ext = "png"
	}

	return &PlacementRequest{
		DocumentID:    documentID,
		PageNumber:    page,
		SignatureData: artifact.ImageData,
		SignaturePosition: Position{
			X: math.Min(math.Max(pos.X, 0), rendered.Width),
			Y: math.Min(math.Max(pos.Y, 0), rendered.Height),
		},
		PDFPageDimensions:      rendered,
		SignatureType:          artifact.SourceMode,
		SignatureFileExtension: ext,
	}, nil
}
