// Package console composes routing, queue and upload into the operator's
// upload controller.
package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"helix/internal/domain"
	"helix/internal/port"
	"helix/internal/queue"
	"helix/internal/routing"
	"helix/internal/upload"
)

// Options configures a Controller.
type Options struct {
	MaxFileSize int64
	// RevalidateOnRoutingChange re-runs validation for every queued entry
	// whenever the routing selection changes.
	RevalidateOnRoutingChange bool
	// RequireCredential refuses to submit without an operator token.
	RequireCredential bool
	// HistoryLimit caps the number of finished batches kept; <= 0 means 20.
	HistoryLimit int

	BatchNotifier  port.BatchNotifier
	ChangeNotifier port.ChangeNotifier
	Logger         *zap.Logger
}

// SubmitInput carries the operator's submission fields.
type SubmitInput struct {
	Priority string
	Notes    string
	Token    string
	Email    string
}

// Controller is one operator's upload console. All state transitions are
// serialised by mu; a batch runs on its own goroutine and reports back
// through the same lock.
type Controller struct {
	mu       sync.Mutex
	operator string
	cascade  *routing.Cascade
	queue    *queue.Queue
	runner   *upload.Runner
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	current    *domain.BatchResult
	cancel     context.CancelFunc
	done       chan struct{}
	history    []*domain.BatchResult
	lastActive time.Time
}

// New creates a controller for operator.
func New(operator string, tax *routing.Taxonomy, client port.ProcessorClient, opts Options) *Controller {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		operator: operator,
		cascade:  routing.NewCascade(tax),
		queue:    queue.New(queue.NewValidator(tax, opts.MaxFileSize)),
		runner:   upload.NewRunner(client, logger),
		opts:     opts,
		logger:   logger.Named("console").With(zap.String("operator", operator)),
		now:      time.Now,
	}
	c.lastActive = c.now()
	return c
}

// Operator returns the operator this console belongs to.
func (c *Controller) Operator() string { return c.operator }

// SetDepartment selects a department, clearing process and file type.
func (c *Controller) SetDepartment(code string) error {
	return c.route(func() error { return c.cascade.SetDepartment(code) })
}

// SetProcess selects a process under the current department.
func (c *Controller) SetProcess(code string) error {
	return c.route(func() error { return c.cascade.SetProcess(code) })
}

// SetFileType selects a file type under the current process.
func (c *Controller) SetFileType(code string) error {
	return c.route(func() error { return c.cascade.SetFileType(code) })
}

// SetRouting selects all three levels at once.
func (c *Controller) SetRouting(code domain.RoutingCode) error {
	return c.route(func() error { return c.cascade.Apply(code) })
}

func (c *Controller) route(set func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.current != nil {
		return domain.ErrBatchInProgress
	}
	before := c.cascade.Selection()
	err := set()
	if c.opts.RevalidateOnRoutingChange && c.cascade.Selection() != before {
		counts := c.queue.ValidateAll(c.cascade.Selection().FileType)
		if c.queue.Len() > 0 {
			c.logger.Debug("queue revalidated after routing change",
				zap.Int("valid", counts.Valid),
				zap.Int("invalid", counts.Invalid))
		}
	}
	return err
}

// Add queues a payload, validated against the current file type.
func (c *Controller) Add(p port.Payload) (FileView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.current != nil {
		return FileView{}, domain.ErrBatchInProgress
	}
	e := c.queue.Add(p, c.cascade.Selection().FileType)
	c.logger.Debug("file queued",
		zap.String("entry_id", e.ID),
		zap.String("file", p.Name()),
		zap.Bool("valid", e.Validation.Valid))
	return fileView(e), nil
}

// Remove drops an entry. Unknown IDs are ignored.
func (c *Controller) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return domain.ErrBatchInProgress
	}
	c.touch()
	e, ok := c.queue.Remove(id)
	c.mu.Unlock()
	if ok {
		c.release(ctx, e)
	}
	return nil
}

// Clear empties the queue.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return domain.ErrBatchInProgress
	}
	c.touch()
	removed := c.queue.Clear()
	c.mu.Unlock()
	c.release(ctx, removed...)
	return nil
}

// ValidateAll re-validates every entry against the current file type.
func (c *Controller) ValidateAll() (queue.Counts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.current != nil {
		return queue.Counts{}, domain.ErrBatchInProgress
	}
	return c.queue.ValidateAll(c.cascade.Selection().FileType), nil
}

// Submit uploads every ready entry and blocks until the batch is done.
// Cancelling ctx stops the batch before the next entry.
func (c *Controller) Submit(ctx context.Context, in SubmitInput) (*domain.BatchResult, error) {
	run, err := c.begin(ctx, in)
	if err != nil {
		return nil, err
	}
	return c.execute(run), nil
}

// Start begins a batch in the background and returns its initial state.
// The batch outlives ctx; use Cancel to stop it.
func (c *Controller) Start(ctx context.Context, in SubmitInput) (*domain.BatchResult, error) {
	run, err := c.begin(context.WithoutCancel(ctx), in)
	if err != nil {
		return nil, err
	}
	// The runner owns run.batch from here on.
	initial := run.batch.Clone()
	go c.execute(run)
	return initial, nil
}

// Cancel asks the running batch to stop before its next entry. It reports
// whether a batch was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.logger.Info("batch cancel requested", zap.String("batch_id", c.current.ID))
	return true
}

// Wait blocks until no batch is running or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a batch is running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// LastActive is the time of the last operator action.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Batches returns finished batches, newest first.
func (c *Controller) Batches() []*domain.BatchResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.BatchResult, 0, len(c.history)+1)
	if c.current != nil {
		out = append(out, c.current.Clone())
	}
	for _, b := range c.history {
		out = append(out, b.Clone())
	}
	return out
}

// Batch looks up a running or finished batch.
func (c *Controller) Batch(id string) (*domain.BatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == id {
		return c.current.Clone(), nil
	}
	for _, b := range c.history {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
}

type batchRun struct {
	ctx   context.Context
	batch *domain.BatchResult
	items []upload.Item
	req   upload.Request
	done  chan struct{}
}

// begin checks preconditions and marks the batch as running.
func (c *Controller) begin(ctx context.Context, in SubmitInput) (*batchRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.current != nil {
		return nil, domain.ErrBatchInProgress
	}
	code, ok := c.cascade.RoutingCode()
	if !ok {
		return nil, domain.ErrRoutingIncomplete
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	ready := c.queue.Ready()
	if len(ready) == 0 {
		return nil, domain.ErrNoValidFiles
	}
	if c.opts.RequireCredential && in.Token == "" {
		return nil, domain.ErrMissingCredential
	}

	req := upload.Request{
		Operator: c.operator,
		Email:    in.Email,
		Routing:  code,
		Priority: priority,
		Notes:    in.Notes,
		Token:    in.Token,
	}
	items := make([]upload.Item, 0, len(ready))
	for _, e := range ready {
		items = append(items, upload.Item{ID: e.ID, Payload: e.Payload})
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &batchRun{
		ctx:   runCtx,
		batch: c.runner.NewBatch(req),
		items: items,
		req:   req,
		done:  make(chan struct{}),
	}
	c.current = run.batch.Clone()
	c.cancel = cancel
	c.done = run.done

	c.logger.Info("batch started",
		zap.String("batch_id", run.batch.ID),
		zap.String("routing_code", code.String()),
		zap.String("priority", string(priority)),
		zap.Int("files", len(items)))
	return run, nil
}

func (c *Controller) execute(run *batchRun) *domain.BatchResult {
	c.runner.Run(run.ctx, run.batch, run.items, run.req, &tracker{c: c})
	result := run.batch

	c.mu.Lock()
	c.cancel()
	var removed []*queue.Entry
	if result.State == domain.BatchStateCancelled {
		// Only attempted entries leave the queue; the ones a cancelled
		// batch never reached stay ready for the next submit.
		for _, o := range result.Outcomes {
			if o.Status == domain.FileStatusSkipped {
				continue
			}
			if e, ok := c.queue.Remove(o.EntryID); ok {
				removed = append(removed, e)
			}
		}
	} else {
		removed = c.queue.Clear()
	}
	c.history = append([]*domain.BatchResult{result.Clone()}, c.history...)
	if len(c.history) > c.opts.HistoryLimit {
		c.history = c.history[:c.opts.HistoryLimit]
	}
	c.current = nil
	c.cancel = nil
	c.lastActive = c.now()
	c.mu.Unlock()
	defer c.settle(run.done)

	ctx := context.WithoutCancel(run.ctx)
	c.release(ctx, removed...)
	if c.opts.BatchNotifier != nil {
		if err := c.opts.BatchNotifier.NotifyBatch(ctx, result.Clone()); err != nil {
			c.logger.Warn("batch notification failed", zap.String("batch_id", result.ID), zap.Error(err))
		}
	}
	if result.Succeeded > 0 && c.opts.ChangeNotifier != nil {
		c.opts.ChangeNotifier.DataChanged(ctx, result.Clone())
	}
	return result.Clone()
}

// settle wakes waiters once a batch has fully wound down, notifications
// included.
func (c *Controller) settle(done chan struct{}) {
	c.mu.Lock()
	if c.done == done {
		c.done = nil
	}
	c.mu.Unlock()
	close(done)
}

func (c *Controller) release(ctx context.Context, entries ...*queue.Entry) {
	for _, e := range entries {
		r, ok := e.Payload.(port.Releaser)
		if !ok {
			continue
		}
		if err := r.Release(ctx); err != nil {
			c.logger.Warn("releasing payload", zap.String("entry_id", e.ID), zap.Error(err))
		}
	}
}

func (c *Controller) touch() {
	c.lastActive = c.now()
}

// tracker mirrors runner progress into the queue and the live batch.
type tracker struct {
	c *Controller
}

func (t *tracker) Started(id string) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if e, ok := t.c.queue.Get(id); ok {
		e.Status = domain.FileStatusUploading
		e.Progress = 0
	}
}

func (t *tracker) Progressed(id string, percent int) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if e, ok := t.c.queue.Get(id); ok {
		e.Progress = percent
	}
}

func (t *tracker) Finished(o domain.FileOutcome) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.c.current != nil {
		t.c.current.Record(o)
	}
	e, ok := t.c.queue.Get(o.EntryID)
	if !ok {
		return
	}
	switch o.Status {
	case domain.FileStatusCompleted:
		e.Status = domain.FileStatusCompleted
		e.Progress = 100
	case domain.FileStatusFailed:
		e.Status = domain.FileStatusFailed
		e.Error = o.Error
	}
}
