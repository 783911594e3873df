// Package session sequences one report run: collect inputs, extract, review, download.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/report-generator/constants"
	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/llm"
	"github.com/joseph-ayodele/report-generator/internal/metrics"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
	"github.com/joseph-ayodele/report-generator/internal/pptx"
	"github.com/joseph-ayodele/report-generator/internal/render"
)

// User-visible precondition messages.
const (
	MsgCredentialRequired = "API Key is required to proceed."
	MsgInputsRequired     = "Please enter a customer name and upload files."
	MsgNoSupportedFiles   = "none of the uploaded files can be analyzed"
)

var (
	// ErrPrecondition marks input problems caught before any state change.
	ErrPrecondition = errors.New("precondition failed")
	ErrBusy         = errors.New("an analysis is already running")
	ErrFilesFrozen  = errors.New("files can only be changed before analysis")
	ErrNoReport     = errors.New("no report is available")
	ErrFileIndex    = errors.New("file index out of range")
)

// authMarkers in a failure message mean the credential should be re-entered.
var authMarkers = []string{"400", "401", "403", "API key"}

// CredentialStore persists the Gemini API key.
type CredentialStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, v string) error
	Clear(ctx context.Context) error
}

type Normalizer interface {
	Normalize(ctx context.Context, files []normalize.File) (normalize.Result, error)
}

type Renderer interface {
	Render(ctx context.Context, data entity.ReportData, customerName string) ([]byte, error)
}

// FileInfo describes an uploaded file without its bytes.
type FileInfo struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int    `json:"size"`
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	State           constants.SessionState `json:"state"`
	CustomerName    string                 `json:"customer_name"`
	Files           []FileInfo             `json:"files"`
	Error           string                 `json:"error,omitempty"`
	NeedsCredential bool                   `json:"needs_credential"`
	Warnings        []normalize.Warning    `json:"warnings,omitempty"`
	HasReport       bool                   `json:"has_report"`
	Report          *entity.ReportData     `json:"-"`
	ReportCustomer  string                 `json:"report_customer,omitempty"`
	Epoch           uint64                 `json:"epoch"`
}

// Artifact is a rendered deck ready to hand to the user.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

type Controller struct {
	mu sync.Mutex

	state           constants.SessionState
	files           []normalize.File
	customerName    string
	errMsg          string
	needsCredential bool
	warnings        []normalize.Warning
	report          *llm.Result
	reportCustomer  string
	epoch           uint64

	creds      CredentialStore
	normalizer Normalizer
	extractor  llm.ReportExtractor
	renderer   Renderer
	logger     *slog.Logger
}

func NewController(creds CredentialStore, n Normalizer, x llm.ReportExtractor, r Renderer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:      constants.SessionIdle,
		creds:      creds,
		normalizer: n,
		extractor:  x,
		renderer:   r,
		logger:     logger,
	}
}

func precondition(msg string) error {
	return common.NewAppError(common.CodePrecondition, msg, ErrPrecondition)
}

// Message returns the user-facing text of a precondition error, or err.Error().
func Message(err error) string { return common.UserMessage(err) }

// transition must be called with mu held.
func (c *Controller) transition(to constants.SessionState) {
	if c.state == to {
		return
	}
	metrics.SessionTransitionsTotal.WithLabelValues(string(c.state), string(to)).Inc()
	c.logger.Debug("session.transition", "from", c.state, "to", to, "epoch", c.epoch)
	c.state = to
}

// AddFiles appends files in the given order.
func (c *Controller) AddFiles(files ...normalize.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != constants.SessionIdle {
		return ErrFilesFrozen
	}
	c.files = append(c.files, files...)
	return nil
}

func (c *Controller) RemoveFile(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != constants.SessionIdle {
		return ErrFilesFrozen
	}
	if index < 0 || index >= len(c.files) {
		return fmt.Errorf("%w: %d", ErrFileIndex, index)
	}
	c.files = append(c.files[:index], c.files[index+1:]...)
	return nil
}

func (c *Controller) SetCustomerName(name string) {
	c.mu.Lock()
	c.customerName = name
	c.mu.Unlock()
}

// SaveCredential stores a trimmed key and clears any pending error.
func (c *Controller) SaveCredential(ctx context.Context, key string) error {
	if err := c.creds.Set(ctx, strings.TrimSpace(key)); err != nil {
		return err
	}
	c.mu.Lock()
	c.errMsg = ""
	c.needsCredential = false
	c.mu.Unlock()
	return nil
}

func (c *Controller) ClearCredential(ctx context.Context) error {
	if err := c.creds.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.needsCredential = true
	c.mu.Unlock()
	return nil
}

// Job is one accepted analysis. Run performs the extraction.
type Job struct {
	c        *Controller
	epoch    uint64
	files    []normalize.File
	customer string
	key      string
}

func (j *Job) Epoch() uint64 { return j.epoch }

// Begin checks preconditions and moves the session to ANALYZING. The
// returned job must be Run exactly once.
func (c *Controller) Begin(ctx context.Context) (*Job, error) {
	key, err := c.creds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	key = strings.TrimSpace(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != constants.SessionIdle {
		return nil, ErrBusy
	}
	if key == "" {
		c.errMsg = MsgCredentialRequired
		c.needsCredential = true
		return nil, precondition(MsgCredentialRequired)
	}
	if len(c.files) == 0 || strings.TrimSpace(c.customerName) == "" {
		c.errMsg = MsgInputsRequired
		return nil, precondition(MsgInputsRequired)
	}

	c.errMsg = ""
	c.warnings = nil
	c.transition(constants.SessionAnalyzing)
	files := make([]normalize.File, len(c.files))
	copy(files, c.files)
	return &Job{c: c, epoch: c.epoch, files: files, customer: c.customerName, key: key}, nil
}

// Run normalizes the captured files and extracts the report. The outcome
// is applied only if no reset happened since Begin.
func (j *Job) Run(ctx context.Context) (err error) {
	c := j.c
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("session.analyze.panic", "req_id", common.RequestIDFromContext(ctx), "epoch", j.epoch, "panic", r)
			err = j.finish(ctx, nil, llm.Result{}, fmt.Errorf("analysis panicked: %v", r), start)
		}
	}()
	c.logger.Info("session.analyze.start",
		"req_id", common.RequestIDFromContext(ctx),
		"epoch", j.epoch,
		"files", len(j.files),
		"customer", j.customer,
	)

	norm, err := c.normalizer.Normalize(ctx, j.files)
	if err == nil && len(norm.Fragments) == 0 {
		err = errors.New(MsgNoSupportedFiles)
	}
	var res llm.Result
	if err == nil {
		res, err = c.extractor.Extract(ctx, norm.Fragments, j.customer, j.key)
	}
	return j.finish(ctx, norm.Warnings, res, err, start)
}

// Abandon fails a job that will never run, such as one that could not be
// queued, so the session does not stay in ANALYZING.
func (j *Job) Abandon(ctx context.Context, cause error) {
	_ = j.finish(ctx, nil, llm.Result{}, cause, time.Now())
}

func (j *Job) finish(ctx context.Context, warnings []normalize.Warning, res llm.Result, err error, start time.Time) error {
	c := j.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != j.epoch {
		c.logger.Warn("session.analyze.stale_discarded",
			"req_id", common.RequestIDFromContext(ctx),
			"epoch", j.epoch,
			"current_epoch", c.epoch,
			"failed", err != nil,
		)
		return err
	}
	c.warnings = warnings
	if err != nil {
		msg := err.Error()
		c.errMsg = "Failed to analyze: " + msg
		if needsReauth(msg) {
			c.needsCredential = true
		}
		c.transition(constants.SessionIdle)
		c.logger.Error("session.analyze.failed",
			"req_id", common.RequestIDFromContext(ctx),
			"epoch", j.epoch,
			"error", err,
			"reprompt", c.needsCredential,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	c.report = &res
	c.reportCustomer = j.customer
	c.transition(constants.SessionReview)
	c.logger.Info("session.analyze.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"epoch", j.epoch,
		"attempts", res.Attempts,
		"warnings", len(warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Analyze runs Begin and Run back to back.
func (c *Controller) Analyze(ctx context.Context) error {
	job, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	return job.Run(ctx)
}

func needsReauth(msg string) bool {
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Download renders the reviewed report. The state does not change.
func (c *Controller) Download(ctx context.Context) (Artifact, error) {
	c.mu.Lock()
	if c.state != constants.SessionReview || c.report == nil {
		c.mu.Unlock()
		return Artifact{}, ErrNoReport
	}
	data := c.report.Data
	customer := c.reportCustomer
	c.mu.Unlock()

	b, err := c.renderer.Render(ctx, data, customer)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: render.FileName(customer), ContentType: pptx.ContentType, Data: b}, nil
}

// Report returns the reviewed data and the customer name it was extracted for.
func (c *Controller) Report() (entity.ReportData, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != constants.SessionReview || c.report == nil {
		return entity.ReportData{}, "", ErrNoReport
	}
	return c.report.Data, c.reportCustomer, nil
}

// Reset discards everything except the stored credential and invalidates
// any analysis in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.files = nil
	c.customerName = ""
	c.report = nil
	c.reportCustomer = ""
	c.errMsg = ""
	c.warnings = nil
	c.transition(constants.SessionIdle)
	c.logger.Info("session.reset", "epoch", c.epoch)
}

// DismissError clears the banner message.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:           c.state,
		CustomerName:    c.customerName,
		Files:           make([]FileInfo, len(c.files)),
		Error:           c.errMsg,
		NeedsCredential: c.needsCredential,
		Warnings:        append([]normalize.Warning(nil), c.warnings...),
		HasReport:       c.report != nil,
		ReportCustomer:  c.reportCustomer,
		Epoch:           c.epoch,
	}
	for i, f := range c.files {
		s.Files[i] = FileInfo{Name: f.Name, MediaType: f.MediaType, Size: len(f.Data)}
	}
	if c.report != nil {
		d := c.report.Data
		s.Report = &d
	}
	return s
}
