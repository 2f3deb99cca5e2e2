package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/SeakMengs/DocSign/pkg/docsign"
	"github.com/sendgrid/rest"
	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zap.SugaredLogger
}

// Client talks to the Document Store REST API. Every document request carries the bearer token
// held by the AuthContext given at construction.
type Client struct {
	baseURL   string
	auth      *docsign.AuthContext
	rest      *rest.Client
	userAgent string
	logger    *zap.SugaredLogger
}

var _ docsign.DocumentStore = (*Client)(nil)

func NewClient(baseURL string, auth *docsign.AuthContext, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if auth == nil {
		return nil, errors.New("auth context is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = util.GetUserAgent("")
	}

	return &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		auth:      auth,
		rest:      &rest.Client{HTTPClient: httpClient},
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

func (c *Client) Auth() *docsign.AuthContext {
	return c.auth
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type apiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e envelope) errorMessage() string {
	var details []apiError
	if len(e.Errors) > 0 && json.Unmarshal(e.Errors, &details) == nil && len(details) > 0 && details[0].Message != "" {
		if e.Message == "" {
			return details[0].Message
		}
		return e.Message + ": " + details[0].Message
	}
	return e.Message
}

type call struct {
	method      rest.Method
	path        string
	query       map[string]string
	body        []byte
	contentType string
	// requests made before login carry no token
	public bool
}

func (c *Client) do(ctx context.Context, req call) (*rest.Response, error) {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.userAgent,
	}

	if !req.public {
		token := c.auth.Token()
		if token == "" {
			return nil, &docsign.AuthError{Message: "authentication token not found, please log in again"}
		}
		headers["Authorization"] = util.BearerAuthorization(token)
	}

	if len(req.body) > 0 {
		contentType := req.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		headers["Content-Type"] = contentType
	}

	c.logger.Debugf("%s %s", req.method, req.path)

	resp, err := c.rest.SendWithContext(ctx, rest.Request{
		Method:      req.method,
		BaseURL:     c.baseURL + req.path,
		Headers:     headers,
		QueryParams: req.query,
		Body:        req.body,
	})
	if err != nil {
		return nil, &docsign.NetworkError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, statusError(resp)
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(resp *rest.Response) error {
	var env envelope
	message := ""
	if json.Unmarshal([]byte(resp.Body), &env) == nil {
		message = env.errorMessage()
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &docsign.AuthError{Message: message}
	case resp.StatusCode == http.StatusForbidden:
		return &docsign.AuthorizationError{Message: message}
	case resp.StatusCode == http.StatusNotFound:
		return &docsign.NotFoundError{Message: message}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusRequestEntityTooLarge:
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &docsign.ValidationError{Message: message}
	default:
		return &docsign.ServerError{StatusCode: resp.StatusCode, Message: message}
	}
}

// decode unpacks the envelope's data field into out.
func decode(resp *rest.Response, out any) error {
	var env envelope
	if err := json.Unmarshal([]byte(resp.Body), &env); err != nil {
		return &docsign.ServerError{StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if !env.Success {
		return &docsign.ServerError{StatusCode: resp.StatusCode, Message: env.errorMessage()}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &docsign.ServerError{StatusCode: resp.StatusCode, Message: "malformed response data: " + err.Error()}
	}
	return nil
}

func documentPath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/api/docs/" + strings.Join(escaped, "/")
}
