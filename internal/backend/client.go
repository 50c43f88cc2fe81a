package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"helix/internal/config"
	"helix/internal/port"
)

const (
	uploadPath  = "/api/files/upload"
	healthPath  = "/health"
	maxRespBody = 1 << 20
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// RejectedError is a non-2xx answer from the processor. Message is the
// processor's own wording and is shown to the operator as-is.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// IsRejected reports whether err is a processor rejection.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Client implements port.ProcessorClient over HTTP multipart.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a processor client from config.
func NewClient(cfg *config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client around an existing http.Client (for testing).
func NewClientWithHTTP(baseURL string, hc *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  hc,
		logger:  logger.Named("backend"),
	}
}

// Upload sends one file with its routing code, priority and notes.
func (c *Client) Upload(ctx context.Context, input port.ProcessorUploadInput) (*port.ProcessorUploadOutput, error) {
	body, contentType, err := buildMultipart(input)
	if err != nil {
		return nil, fmt.Errorf("building upload body: %w", err)
	}

	total := int64(body.Len())
	var reader io.Reader = body
	if input.Progress != nil {
		reader = &progressReader{r: body, total: total, fn: input.Progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if input.Token != "" {
		req.Header.Set("Authorization", "Bearer "+input.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("upload transport error", zap.String("file", input.FileName), zap.Error(err))
		return nil, fmt.Errorf("calling processor: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRespBody))
	if err != nil {
		return nil, fmt.Errorf("reading processor response: %w", err)
	}

	c.logger.Debug("upload response",
		zap.String("file", input.FileName),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejection(resp.StatusCode, respBody)
	}

	var out port.ProcessorUploadOutput
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decoding processor response: %w", err)
	}
	return &out, nil
}

// Ping checks that the processor answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling processor health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRespBody))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("processor health returned status %d", resp.StatusCode)
	}
	return nil
}

func buildMultipart(input port.ProcessorUploadInput) (*bytes.Buffer, string, error) {
	routing, err := json.Marshal(input.Routing)
	if err != nil {
		return nil, "", fmt.Errorf("encoding routing code: %w", err)
	}

	buf := &bytes.Buffer{}
	if input.Size > 0 {
		buf.Grow(int(input.Size) + 1024)
	}
	w := multipart.NewWriter(buf)

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(input.FileName)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, input.Body); err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}

	fields := []struct{ name, value string }{
		{"routing_code", string(routing)},
		{"priority", string(input.Priority)},
		{"notes", input.Notes},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func rejection(status int, body []byte) *RejectedError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = "upload failed"
	}
	return &RejectedError{StatusCode: status, Message: msg}
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
