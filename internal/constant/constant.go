package constant

import "time"

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

const QUERY_TIMEOUT_DURATION = 10 * time.Second

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const JWT_TYPE_ACCESS = "access"
