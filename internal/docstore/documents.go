package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strconv"

	"github.com/SeakMengs/DocSign/pkg/docsign"
	"github.com/sendgrid/rest"
)

type documentResponse struct {
	Document *docsign.Document `json:"document"`
}

func (c *Client) documentCall(ctx context.Context, req call) (*docsign.Document, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var out documentResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if out.Document == nil {
		return nil, &docsign.ServerError{StatusCode: resp.StatusCode, Message: "response has no document"}
	}
	return out.Document, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*docsign.Document, error) {
	return c.documentCall(ctx, call{method: rest.Get, path: documentPath(id)})
}

// ViewDocument downloads the current PDF bytes.
func (c *Client) ViewDocument(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, call{method: rest.Get, path: documentPath("view", id)})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, &docsign.ServerError{StatusCode: resp.StatusCode, Message: "empty document"}
	}
	return []byte(resp.Body), nil
}

func (c *Client) SignDocument(ctx context.Context, req *docsign.PlacementRequest) (*docsign.Document, error) {
	if req == nil || req.DocumentID == "" {
		return nil, docsign.NewValidationError("placement request has no document")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode placement request: %w", err)
	}

	return c.documentCall(ctx, call{method: rest.Post, path: documentPath("sign", req.DocumentID), body: body})
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status docsign.DocumentStatus) (*docsign.Document, error) {
	if !status.Valid() {
		return nil, docsign.NewValidationError(fmt.Sprintf("invalid document status %q", status))
	}

	body, err := json.Marshal(map[string]docsign.DocumentStatus{"status": status})
	if err != nil {
		return nil, err
	}

	return c.documentCall(ctx, call{method: rest.Put, path: documentPath(id), body: body})
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	resp, err := c.do(ctx, call{method: rest.Delete, path: documentPath(id)})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

type DocumentPage struct {
	Documents []docsign.Document `json:"documents"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
	TotalPage int                `json:"totalPage"`
}

func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) (*DocumentPage, error) {
	query := map[string]string{}
	if page > 0 {
		query["page"] = strconv.Itoa(page)
	}
	if pageSize > 0 {
		query["pageSize"] = strconv.Itoa(pageSize)
	}

	resp, err := c.do(ctx, call{method: rest.Get, path: "/api/docs", query: query})
	if err != nil {
		return nil, err
	}

	var out DocumentPage
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument sends a PDF as the multipart "document" field.
func (c *Client) UploadDocument(ctx context.Context, fileName string, r io.Reader) (*docsign.Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, filepath.Base(fileName)))
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.documentCall(ctx, call{
		method:      rest.Post,
		path:        documentPath("upload"),
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
}
