package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"parking_api_testing/internal/config"
	"parking_api_testing/internal/model"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	detailStyle = lipgloss.NewStyle().Faint(true)
)

// Request is one call to send against the base URL.
type Request struct {
	Section     string
	Method      string
	Path        string
	Description string
	Body        any
	Headers     map[string]string
}

// Runner sends requests one at a time and keeps a record of every attempt.
type Runner struct {
	config  *config.Config
	client  *http.Client
	limiter *rate.Limiter
	out     io.Writer
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	results []model.Record
}

func New(cfg *config.Config, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		out:    out,
		logger: logger,
		now:    time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return r
}

// Results returns a copy of the records collected so far, in call order.
func (r *Runner) Results() []model.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Record, len(r.results))
	copy(out, r.results)
	return out
}

// Do performs the request and appends exactly one record describing the outcome.
// Transport failures are recorded, never returned.
func (r *Runner) Do(ctx context.Context, req Request) model.Record {
	rec := r.execute(ctx, req)

	r.mu.Lock()
	rec.Number = len(r.results) + 1
	r.results = append(r.results, rec)
	r.mu.Unlock()

	r.print(rec)
	return rec
}

func (r *Runner) execute(ctx context.Context, req Request) (rec model.Record) {
	rec = model.Record{
		Section:     req.Section,
		Endpoint:    req.Path,
		Method:      req.Method,
		Description: req.Description,
		Timestamp:   r.now(),
	}
	start := time.Now()
	defer func() { rec.Duration = time.Since(start) }()

	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			rec.Error = fmt.Sprintf("encode request body: %v", err)
			return rec
		}
		body = b
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, r.config.BaseURL+req.Path, bytes.NewReader(body))
	if err != nil {
		rec.Error = fmt.Sprintf("create request: %v", err)
		return rec
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	rec.Curl = toCurl(httpReq, string(body))
	r.logger.Debug("sending request", "method", req.Method, "path", req.Path, "curl", rec.Curl)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			rec.Error = fmt.Sprintf("rate limiter: %v", err)
			return rec
		}
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		rec.Error = err.Error()
		r.logger.Debug("request failed", "method", req.Method, "path", req.Path, "error", err)
		return rec
	}
	defer resp.Body.Close()

	rec.StatusCode = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		rec.Error = fmt.Sprintf("read response: %v", err)
		return rec
	}
	rec.Response = DecodeBody(raw)
	r.logger.Debug("received response", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "bytes", len(raw))
	return rec
}

// DecodeBody returns the JSON value of raw, or raw as a string when it is not JSON.
func DecodeBody(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func (r *Runner) print(rec model.Record) {
	if r.out == nil {
		return
	}
	if rec.Error != "" {
		fmt.Fprintln(r.out, failStyle.Render(fmt.Sprintf("❌ %s %s - %s - %s", rec.Method, rec.Endpoint, model.StatusError, rec.Error)))
		return
	}
	fmt.Fprintln(r.out, passStyle.Render(fmt.Sprintf("✅ %s %s - %d - %s", rec.Method, rec.Endpoint, rec.StatusCode, rec.Description)))
	if obj, ok := rec.Response.(map[string]any); ok {
		if msg, ok := obj["message"]; ok {
			fmt.Fprintln(r.out, detailStyle.Render(fmt.Sprintf("   Message: %v", msg)))
		} else if msg, ok := obj["error"]; ok {
			fmt.Fprintln(r.out, detailStyle.Render(fmt.Sprintf("   Error: %v", msg)))
		}
	}
}

// toCurl renders the request as a replayable curl command
func toCurl(req *http.Request, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s", req.Method)

	keys := make([]string, 0, len(req.Header))
	for key := range req.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " -H '%s: %s'", key, req.Header.Get(key))
	}

	if body != "" {
		fmt.Fprintf(&b, " -d '%s'", body)
	}
	fmt.Fprintf(&b, " '%s'", req.URL.String())
	return b.String()
}
