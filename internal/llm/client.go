package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/metrics"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
)

var (
	// ErrMissingCredential is returned before any network call when no API key is given.
	ErrMissingCredential = errors.New("API key is missing; provide a valid Google AI Studio API key")
	// ErrRetriesExhausted means every attempt was rate limited.
	ErrRetriesExhausted = errors.New("failed to analyze data after multiple retries due to quota limits")
	// ErrEmptyResponse means the upstream call succeeded without a body.
	ErrEmptyResponse = errors.New("no text response from Gemini")
	// ErrParse wraps schema, decode and display-number failures.
	ErrParse = errors.New("parse report")
)

// Config for the extraction client.
type Config struct {
	Model       string
	Temperature float32
	Retry       RetryPolicy
}

// Client implements ReportExtractor over a Generator with rate-limit retries.
type Client struct {
	cfg       Config
	gen       Generator
	schema    map[string]any
	validator *SchemaValidator
	sleep     SleepFunc
	logger    *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

func NewClient(gen Generator, cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-3-pro-preview"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:       cfg,
		gen:       gen,
		schema:    BuildReportJSONSchema(),
		validator: ReportValidator(),
		sleep:     sleepCtx,
		logger:    logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Extract sends the fragments to the model and returns the validated report.
// Rate-limited attempts are retried with linear backoff; every other failure
// is returned immediately.
func (c *Client) Extract(ctx context.Context, fragments []normalize.Fragment, customerName, credential string) (Result, error) {
	key := strings.TrimSpace(credential)
	if key == "" {
		return Result{}, ErrMissingCredential
	}

	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	req := GenerateRequest{
		APIKey:            key,
		Model:             c.cfg.Model,
		Temperature:       c.cfg.Temperature,
		SystemInstruction: SystemInstruction,
		Parts:             BuildParts(fragments, customerName),
		ResponseSchema:    c.schema,
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"fragments", len(fragments),
		"customer", customerName,
	)

	observe := func(result string) {
		metrics.ExtractDurationSeconds.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}

	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		c.logger.Debug("llm.extract.attempt", "req_id", rid, "attempt", attempt)

		text, err := c.gen.Generate(ctx, req)
		if err != nil {
			if !IsRateLimit(err) {
				metrics.ExtractAttemptsTotal.WithLabelValues("error").Inc()
				observe("error")
				c.logger.Error("llm.extract.upstream_error",
					"req_id", rid, "attempt", attempt, "error", err,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return Result{}, err
			}

			metrics.ExtractAttemptsTotal.WithLabelValues("rate_limited").Inc()
			if attempt == c.cfg.Retry.MaxAttempts {
				break
			}
			wait := c.cfg.Retry.Delay(attempt)
			c.logger.Warn("llm.extract.rate_limited",
				"req_id", rid, "attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err,
			)
			metrics.ExtractRetriesTotal.Inc()
			if sErr := c.sleep(ctx, wait); sErr != nil {
				observe("canceled")
				return Result{}, sErr
			}
			continue
		}

		if strings.TrimSpace(text) == "" {
			metrics.ExtractAttemptsTotal.WithLabelValues("empty").Inc()
			observe("empty")
			c.logger.Error("llm.extract.empty_response", "req_id", rid, "attempt", attempt)
			return Result{}, ErrEmptyResponse
		}

		data, raw, err := c.parse(text)
		if err != nil {
			metrics.ExtractAttemptsTotal.WithLabelValues("parse_error").Inc()
			observe("parse_error")
			c.logger.Error("llm.extract.parse_failed",
				"req_id", rid, "attempt", attempt, "error", err, "raw_bytes", len(text),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Result{}, err
		}

		metrics.ExtractAttemptsTotal.WithLabelValues("ok").Inc()
		observe("ok")
		if ragged := data.Summary.Ragged(); len(ragged) > 0 {
			c.logger.Warn("llm.extract.summary_ragged_rows", "req_id", rid, "rows", ragged)
		}
		c.logger.Info("llm.extract.ok",
			"req_id", rid,
			"attempts", attempt,
			"summary_rows", len(data.Summary.Metrics),
			"pages", len(data.PageRanking.Ranking),
			"videos", len(data.VideoRanking.Ranking),
			"cvr_multiplier", data.Conversion.Multiplier,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Data: data, Raw: raw, Attempts: attempt}, nil
	}

	observe("exhausted")
	c.logger.Error("llm.extract.retries_exhausted",
		"req_id", rid, "attempts", c.cfg.Retry.MaxAttempts,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{}, ErrRetriesExhausted
}

func (c *Client) parse(text string) (entity.ReportData, []byte, error) {
	raw := []byte(strings.TrimSpace(text))
	data, err := ParseReport(c.validator, raw)
	if err != nil {
		return entity.ReportData{}, raw, err
	}
	return data, raw, nil
}

// ParseReport validates raw with v, decodes it and checks every
// multiplier and rate string. All failures wrap ErrParse.
func ParseReport(v *SchemaValidator, raw []byte) (entity.ReportData, error) {
	if err := v.Validate(raw); err != nil {
		return entity.ReportData{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	var out entity.ReportData
	if err := json.Unmarshal(raw, &out); err != nil {
		return entity.ReportData{}, fmt.Errorf("%w: unmarshal report: %w", ErrParse, err)
	}
	if err := SanitizeDisplayNumbers(&out); err != nil {
		return entity.ReportData{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return out, nil
}
