package llm

import (
	"context"

	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
)

// Part is one piece of request content: inline bytes with a media type, or text.
type Part struct {
	Text      string
	MediaType string
	Data      []byte
}

// GenerateRequest is everything a Generator needs for one upstream call.
type GenerateRequest struct {
	APIKey            string
	Model             string
	Temperature       float32
	SystemInstruction string
	Parts             []Part
	ResponseSchema    map[string]any
}

// Generator performs a single upstream call and returns the response text.
// Errors must keep the upstream message text intact; callers classify them
// by substring.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Result is a validated report plus the JSON it was parsed from.
type Result struct {
	Data     entity.ReportData
	Raw      []byte
	Attempts int
}

// ReportExtractor is the interface the session depends on.
type ReportExtractor interface {
	Extract(ctx context.Context, fragments []normalize.Fragment, customerName, credential string) (Result, error)
}
