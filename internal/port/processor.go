package port

import (
	"context"
	"io"

	"helix/internal/domain"
)

// ProcessorUploadInput is one multipart submission to the backend processor.
type ProcessorUploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Routing     domain.RoutingCode
	Priority    domain.Priority
	Notes       string
	// Token is the operator's bearer credential; empty means unauthenticated.
	Token string
	// Progress, when set, receives the fraction of the request body sent so far.
	Progress func(sent, total int64)
}

// ProcessorUploadOutput is the processor's acknowledgement of an upload.
type ProcessorUploadOutput struct {
	JobID       string `json:"job_id"`
	RoutingCode string `json:"routing_code"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// ProcessorClient submits files to the backend processor.
type ProcessorClient interface {
	Upload(ctx context.Context, input ProcessorUploadInput) (*ProcessorUploadOutput, error)
	Ping(ctx context.Context) error
}
