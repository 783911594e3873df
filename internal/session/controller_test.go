package session

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/joseph-ayodele/report-generator/constants"
	"github.com/joseph-ayodele/report-generator/internal/async"
	"github.com/joseph-ayodele/report-generator/internal/credential"
	"github.com/joseph-ayodele/report-generator/internal/entity"
	"github.com/joseph-ayodele/report-generator/internal/llm"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
	"github.com/joseph-ayodele/report-generator/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type extractCall struct {
	fragments []normalize.Fragment
	customer  string
	key       string
}

// fakeExtractor returns a fixed outcome, optionally after release is closed.
type fakeExtractor struct {
	result  llm.Result
	err     error
	release chan struct{}
	started chan struct{}
	calls   []extractCall
}

func (f *fakeExtractor) Extract(ctx context.Context, fragments []normalize.Fragment, customer, key string) (llm.Result, error) {
	f.calls = append(f.calls, extractCall{fragments: fragments, customer: customer, key: key})
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, []normalize.Fragment, string, string) (llm.Result, error) {
	panic("sheet index out of range")
}

func sampleReport() entity.ReportData {
	return entity.ReportData{
		Summary: entity.SummarySection{
			Headers: []string{"9月"},
			Metrics: []entity.SummaryMetric{{Label: "視聴回数", Values: []entity.MetricValue{entity.NumberValue(180500)}}},
		},
		Conversion: entity.ConversionSection{
			Insight:      "視聴者のCVRが高い",
			ViewerCVR:    "4.55%",
			NonViewerCVR: "0.5%",
			Multiplier:   "9.1",
		},
	}
}

func newController(t *testing.T, key string, x llm.ReportExtractor) *Controller {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }
	return NewController(credential.NewMemory(key), normalize.New(nil), x, render.New(nil, render.WithClock(clock)), nil)
}

func csvFile(name string) normalize.File {
	return normalize.File{Name: name, MediaType: "text/csv", Data: []byte("a,b\n1,2\n")}
}

func TestAnalyze_MissingCredential(t *testing.T) {
	x := &fakeExtractor{}
	c := newController(t, "", x)
	require.NoError(t, c.AddFiles(normalize.File{Name: "chart.png", MediaType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}))
	c.SetCustomerName("Acme")

	err := c.Analyze(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, MsgCredentialRequired, Message(err))

	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.True(t, snap.NeedsCredential)
	assert.Equal(t, MsgCredentialRequired, snap.Error)
	assert.Empty(t, x.calls)
}

func TestAnalyze_MissingInputs(t *testing.T) {
	cases := []struct {
		name     string
		files    []normalize.File
		customer string
	}{
		{"no files", nil, "Acme"},
		{"blank customer", []normalize.File{csvFile("a.csv")}, "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x := &fakeExtractor{}
			c := newController(t, "abc", x)
			require.NoError(t, c.AddFiles(tc.files...))
			c.SetCustomerName(tc.customer)

			err := c.Analyze(context.Background())
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Equal(t, MsgInputsRequired, Message(err))
			assert.Equal(t, constants.SessionIdle, c.Snapshot().State)
			assert.False(t, c.Snapshot().NeedsCredential)
			assert.Empty(t, x.calls)
		})
	}
}

func TestAnalyze_SuccessThenDownload(t *testing.T) {
	x := &fakeExtractor{result: llm.Result{Data: sampleReport(), Attempts: 1}}
	c := newController(t, " abc ", x)
	require.NoError(t, c.AddFiles(csvFile("a.csv"), normalize.File{Name: "notes.docx", MediaType: "application/msword", Data: []byte("x")}, csvFile("b.csv")))
	c.SetCustomerName("Acme")

	require.NoError(t, c.Analyze(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, constants.SessionReview, snap.State)
	assert.True(t, snap.HasReport)
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Warnings, 1)
	assert.Equal(t, "notes.docx", snap.Warnings[0].Name)

	require.Len(t, x.calls, 1)
	assert.Equal(t, "abc", x.calls[0].key)
	assert.Equal(t, "Acme", x.calls[0].customer)
	require.Len(t, x.calls[0].fragments, 2)
	assert.Equal(t, "a.csv", x.calls[0].fragments[0].Source)
	assert.Equal(t, "b.csv", x.calls[0].fragments[1].Source)

	art, err := c.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme_Report.pptx", art.Name)
	assert.Equal(t, constants.SessionReview, c.Snapshot().State)

	zr, err := zip.NewReader(bytes.NewReader(art.Data), int64(len(art.Data)))
	require.NoError(t, err)
	var slide6 []byte
	for _, f := range zr.File {
		if f.Name == "ppt/slides/slide6.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			slide6, err = io.ReadAll(rc)
			require.NoError(t, err)
			_ = rc.Close()
		}
	}
	assert.Contains(t, string(slide6), "9.1倍")
}

func TestAnalyze_FailureKeepsInputs(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		reprompt bool
	}{
		{"auth failure", errors.New("Error 403, PERMISSION_DENIED"), true},
		{"bad key text", errors.New("API key not valid. Please pass a valid API key."), true},
		{"exhausted", llm.ErrRetriesExhausted, false},
		{"empty body", llm.ErrEmptyResponse, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newController(t, "abc", &fakeExtractor{err: tc.err})
			require.NoError(t, c.AddFiles(csvFile("a.csv")))
			c.SetCustomerName("Acme")

			err := c.Analyze(context.Background())
			assert.ErrorIs(t, err, tc.err)

			snap := c.Snapshot()
			assert.Equal(t, constants.SessionIdle, snap.State)
			assert.Equal(t, "Failed to analyze: "+tc.err.Error(), snap.Error)
			assert.Equal(t, tc.reprompt, snap.NeedsCredential)
			assert.Equal(t, "Acme", snap.CustomerName)
			assert.Len(t, snap.Files, 1)
			assert.False(t, snap.HasReport)
		})
	}
}

func TestAnalyze_NoSupportedFiles(t *testing.T) {
	x := &fakeExtractor{}
	c := newController(t, "abc", x)
	require.NoError(t, c.AddFiles(normalize.File{Name: "deck.key", MediaType: "application/x-iwork-keynote", Data: []byte("x")}))
	c.SetCustomerName("Acme")

	require.Error(t, c.Analyze(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.Equal(t, "Failed to analyze: "+MsgNoSupportedFiles, snap.Error)
	assert.Len(t, snap.Warnings, 1)
	assert.Empty(t, x.calls)
}

func TestBusyAndFrozenWhileAnalyzing(t *testing.T) {
	x := &fakeExtractor{result: llm.Result{Data: sampleReport()}, release: make(chan struct{}), started: make(chan struct{})}
	c := newController(t, "abc", x)
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")

	job, err := c.Begin(context.Background())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- job.Run(context.Background()) }()
	<-x.started

	assert.Equal(t, constants.SessionAnalyzing, c.Snapshot().State)
	_, err = c.Begin(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.AddFiles(csvFile("b.csv")), ErrFilesFrozen)
	assert.ErrorIs(t, c.RemoveFile(0), ErrFilesFrozen)
	_, err = c.Download(context.Background())
	assert.ErrorIs(t, err, ErrNoReport)

	close(x.release)
	require.NoError(t, <-done)
	assert.Equal(t, constants.SessionReview, c.Snapshot().State)
	assert.ErrorIs(t, c.AddFiles(csvFile("b.csv")), ErrFilesFrozen)
}

func TestResetDiscardsStaleResult(t *testing.T) {
	x := &fakeExtractor{result: llm.Result{Data: sampleReport()}, release: make(chan struct{}), started: make(chan struct{})}
	c := newController(t, "abc", x)
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")

	job, err := c.Begin(context.Background())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- job.Run(context.Background()) }()
	<-x.started

	c.Reset()
	close(x.release)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.False(t, snap.HasReport)
	assert.Empty(t, snap.Files)
	assert.Empty(t, snap.CustomerName)
	assert.Equal(t, job.Epoch()+1, snap.Epoch)
}

func TestResetFromReview(t *testing.T) {
	c := newController(t, "abc", &fakeExtractor{result: llm.Result{Data: sampleReport()}})
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")
	require.NoError(t, c.Analyze(context.Background()))

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.False(t, snap.HasReport)
	_, _, err := c.Report()
	assert.ErrorIs(t, err, ErrNoReport)

	v, err := c.creds.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", v, "reset keeps the stored credential")
}

func TestRemoveFilePreservesOrder(t *testing.T) {
	c := newController(t, "abc", &fakeExtractor{})
	require.NoError(t, c.AddFiles(csvFile("a.csv"), csvFile("b.csv"), csvFile("c.csv")))
	require.NoError(t, c.RemoveFile(1))
	assert.ErrorIs(t, c.RemoveFile(5), ErrFileIndex)

	files := c.Snapshot().Files
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", files[0].Name)
	assert.Equal(t, "c.csv", files[1].Name)
}

func TestSaveAndClearCredential(t *testing.T) {
	ctx := context.Background()
	c := newController(t, "", &fakeExtractor{})
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	require.Error(t, c.Analyze(ctx))
	require.True(t, c.Snapshot().NeedsCredential)

	require.NoError(t, c.SaveCredential(ctx, "  AIza-new  "))
	snap := c.Snapshot()
	assert.False(t, snap.NeedsCredential)
	assert.Empty(t, snap.Error)
	v, _ := c.creds.Get(ctx)
	assert.Equal(t, "AIza-new", v)

	require.NoError(t, c.ClearCredential(ctx))
	assert.True(t, c.Snapshot().NeedsCredential)
	v, _ = c.creds.Get(ctx)
	assert.Empty(t, v)
}

func TestAbandonReturnsToIdle(t *testing.T) {
	x := &fakeExtractor{}
	c := newController(t, "abc", x)
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")

	job, err := c.Begin(context.Background())
	require.NoError(t, err)
	require.Equal(t, constants.SessionAnalyzing, c.Snapshot().State)

	job.Abandon(context.Background(), errors.New("queue is shut down"))
	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.Equal(t, "Failed to analyze: queue is shut down", snap.Error)
	assert.Len(t, snap.Files, 1)
	assert.Empty(t, x.calls)

	// inputs are intact, so a retry can start
	_, err = c.Begin(context.Background())
	require.NoError(t, err)
}

func TestPanicDuringAnalysisReturnsToIdle(t *testing.T) {
	c := newController(t, "abc", panickingExtractor{})
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")

	job, err := c.Begin(context.Background())
	require.NoError(t, err)

	q := async.NewQueue(nil, async.WithWorkers(1))
	require.NoError(t, q.Submit(context.Background(), async.Job{Name: "analyze", Run: job.Run}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Shutdown(ctx))

	snap := c.Snapshot()
	assert.Equal(t, constants.SessionIdle, snap.State)
	assert.Equal(t, "Failed to analyze: analysis panicked: sheet index out of range", snap.Error)
	assert.Len(t, snap.Files, 1)

	_, err = c.Begin(context.Background())
	require.NoError(t, err)
}

func TestRunReturnsPanicAsError(t *testing.T) {
	c := newController(t, "abc", panickingExtractor{})
	require.NoError(t, c.AddFiles(csvFile("a.csv")))
	c.SetCustomerName("Acme")

	job, err := c.Begin(context.Background())
	require.NoError(t, err)
	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis panicked")
	assert.Equal(t, constants.SessionIdle, c.Snapshot().State)
}
