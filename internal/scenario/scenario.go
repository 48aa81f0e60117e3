package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"parking_api_testing/internal/model"
	"parking_api_testing/internal/runner"
)

// Doer sends one request and returns its record. *runner.Runner satisfies it.
type Doer interface {
	Do(ctx context.Context, req runner.Request) model.Record
}

type Summary struct {
	Executed   int
	Skipped    int
	UserToken  string
	AdminToken string
}

// Executor walks a plan in order, carrying session tokens between steps.
type Executor struct {
	doer       Doer
	out        io.Writer
	logger     *slog.Logger
	tokenField string
}

func NewExecutor(doer Doer, out io.Writer, tokenField string, logger *slog.Logger) *Executor {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{doer: doer, out: out, logger: logger, tokenField: tokenField}
}

// Execute runs every step of the plan. Steps needing a token that was never
// obtained are skipped. Execute stops early only when ctx is cancelled.
func (e *Executor) Execute(ctx context.Context, plan Plan) (Summary, error) {
	var sum Summary
	tokens := map[model.Slot]string{}
	section := ""

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if step.Section != section {
			section = step.Section
			fmt.Fprintf(e.out, "\n%s\n%s\n", section, strings.Repeat("-", 40))
		}

		headers := map[string]string{}
		if step.Auth != model.SlotNone {
			token := tokens[step.Auth]
			if token == "" {
				sum.Skipped++
				fmt.Fprintf(e.out, "⏭️  Skipping %s %s (%s) - no %s token\n", step.Method, step.Path, step.Description, step.Auth)
				e.logger.Debug("step skipped", "method", step.Method, "path", step.Path, "slot", step.Auth)
				continue
			}
			headers["Authorization"] = token
		}

		rec := e.doer.Do(ctx, runner.Request{
			Section:     step.Section,
			Method:      step.Method,
			Path:        step.Path,
			Description: step.Description,
			Body:        step.Body,
			Headers:     headers,
		})
		sum.Executed++

		if step.Capture != model.SlotNone {
			if token, ok := extractToken(rec, e.tokenField); ok {
				tokens[step.Capture] = token
				fmt.Fprintf(e.out, "   🔑 %s token obtained\n", titleSlot(step.Capture))
			}
		}
	}

	sum.UserToken = tokens[model.SlotUser]
	sum.AdminToken = tokens[model.SlotAdmin]
	return sum, nil
}

// extractToken returns the token field of a 200 JSON object response.
func extractToken(rec model.Record, field string) (string, bool) {
	if rec.Error != "" || rec.StatusCode != http.StatusOK {
		return "", false
	}
	obj, ok := rec.Response.(map[string]any)
	if !ok {
		return "", false
	}
	token, ok := obj[field].(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func titleSlot(s model.Slot) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
