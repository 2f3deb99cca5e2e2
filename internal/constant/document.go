package constant

const (
	DocumentFormField   = "document"
	DocumentContentType = "application/pdf"
)

// Object storage layout, relative to the bucket.
const (
	DocumentDirectory  = "documents"
	SignatureDirectory = "signatures"
)
