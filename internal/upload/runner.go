// Package upload submits queued files to the processor one at a time.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helix/internal/domain"
	"helix/internal/port"
)

// Item is one ready entry handed to the runner.
type Item struct {
	ID      string
	Payload port.Payload
}

// Request carries the batch-wide submission fields.
type Request struct {
	Operator string
	// Email is where the batch summary goes, when a notifier sends one.
	Email    string
	Routing  domain.RoutingCode
	Priority domain.Priority
	Notes    string
	Token    string
}

// Tracker receives per-entry state transitions while a batch runs.
// Calls are made from the runner goroutine, in order, one entry at a time.
type Tracker interface {
	Started(id string)
	Progressed(id string, percent int)
	Finished(outcome domain.FileOutcome)
}

// Runner uploads items sequentially through a ProcessorClient.
type Runner struct {
	client port.ProcessorClient
	logger *zap.Logger
	now    func() time.Time
}

// NewRunner creates a runner.
func NewRunner(client port.ProcessorClient, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, logger: logger.Named("upload"), now: time.Now}
}

// NewBatch creates the result record for a batch that is about to run.
func (r *Runner) NewBatch(req Request) *domain.BatchResult {
	return &domain.BatchResult{
		ID:        uuid.NewString(),
		Operator:  req.Operator,
		Email:     req.Email,
		Routing:   req.Routing,
		Priority:  req.Priority,
		Notes:     req.Notes,
		State:     domain.BatchStateRunning,
		StartedAt: r.now(),
	}
}

// Run submits items in order, awaiting each upload before starting the next.
// A failed item never stops the batch. The context is checked before every
// item; once it is done the remaining items are recorded as skipped.
func (r *Runner) Run(ctx context.Context, batch *domain.BatchResult, items []Item, req Request, tracker Tracker) {
	m := getMetrics()
	fileType := req.Routing.FileType

	for i, item := range items {
		if ctx.Err() != nil {
			r.logger.Info("batch cancelled",
				zap.String("batch_id", batch.ID),
				zap.Int("remaining", len(items)-i))
			for _, rest := range items[i:] {
				o := domain.FileOutcome{
					EntryID:  rest.ID,
					FileName: rest.Payload.Name(),
					Size:     rest.Payload.Size(),
					Status:   domain.FileStatusSkipped,
					Error:    "batch cancelled",
				}
				batch.Record(o)
				tracker.Finished(o)
			}
			break
		}

		o := r.uploadOne(ctx, item, req, tracker)
		batch.Record(o)
		tracker.Finished(o)

		result := "success"
		if o.Status == domain.FileStatusFailed {
			result = "failure"
		} else {
			m.bytesTotal.WithLabelValues(fileType).Add(float64(o.Size))
		}
		m.filesTotal.WithLabelValues(fileType, result).Inc()
		m.fileDuration.WithLabelValues(fileType, result).Observe(o.Duration.Seconds())
	}

	finished := r.now()
	batch.FinishedAt = &finished
	batch.State = domain.BatchStateFinished
	if batch.Skipped > 0 {
		batch.State = domain.BatchStateCancelled
	}
	m.batchesTotal.WithLabelValues(string(batch.State)).Inc()

	r.logger.Info("batch finished",
		zap.String("batch_id", batch.ID),
		zap.String("routing_code", req.Routing.String()),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed),
		zap.Int("skipped", batch.Skipped))
}

func (r *Runner) uploadOne(ctx context.Context, item Item, req Request, tracker Tracker) domain.FileOutcome {
	start := r.now()
	o := domain.FileOutcome{
		EntryID:  item.ID,
		FileName: item.Payload.Name(),
		Size:     item.Payload.Size(),
	}
	tracker.Started(item.ID)

	fail := func(err error) domain.FileOutcome {
		o.Status = domain.FileStatusFailed
		o.Error = err.Error()
		o.Duration = r.now().Sub(start)
		r.logger.Warn("file upload failed",
			zap.String("entry_id", item.ID),
			zap.String("file", o.FileName),
			zap.Error(err))
		return o
	}

	// An upload already on the wire is allowed to finish; cancellation only
	// takes effect between items.
	ctx = context.WithoutCancel(ctx)

	body, err := item.Payload.Open(ctx)
	if err != nil {
		return fail(fmt.Errorf("opening %s: %w", o.FileName, err))
	}
	defer func() { _ = body.Close() }()

	last := 0
	out, err := r.client.Upload(ctx, port.ProcessorUploadInput{
		FileName:    o.FileName,
		ContentType: item.Payload.ContentType(),
		Size:        o.Size,
		Body:        body,
		Routing:     req.Routing,
		Priority:    req.Priority,
		Notes:       req.Notes,
		Token:       req.Token,
		Progress: func(sent, total int64) {
			pct := percent(sent, total)
			if pct > last {
				last = pct
				tracker.Progressed(item.ID, pct)
			}
		},
	})
	if err != nil {
		return fail(err)
	}

	o.Status = domain.FileStatusCompleted
	o.JobID = out.JobID
	o.Message = out.Message
	o.Duration = r.now().Sub(start)
	r.logger.Info("file uploaded",
		zap.String("entry_id", item.ID),
		zap.String("file", o.FileName),
		zap.String("job_id", o.JobID),
		zap.Duration("duration", o.Duration))
	return o
}

// percent maps transport progress to 0..99; 100 is reserved for the
// processor's acknowledgement.
func percent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(sent * 100 / total)
	if p > 99 {
		p = 99
	}
	if p < 0 {
		p = 0
	}
	return p
}
