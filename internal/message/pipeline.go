// ABOUTME: Sequential broadcast pipeline with inter-recipient pacing.
// ABOUTME: Per-recipient failures become result entries, never batch aborts.

package message

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ResultUnregistered is reported when the recipient fails the
	// registration check.
	ResultUnregistered = "The number is not registered"
	// ResultMessageSent is reported after a successful text send.
	ResultMessageSent = "Message sent"
	// ResultMediaSent is reported after a successful media send.
	ResultMediaSent = "Media sent"
)

// Job is one broadcast batch: a list of raw recipient numbers, the
// message body, an optional attachment URL, and the pacing delay
// between recipients.
type Job struct {
	Recipients []string
	Message    string
	FileURL    string
	Delay      time.Duration
}

// Result is the per-recipient outcome of a broadcast. Recipient holds
// the normalized address.
type Result struct {
	Recipient string `json:"recipient"`
	Status    bool   `json:"status"`
	Message   string `json:"message"`
}

// Pipeline runs broadcast jobs against a session's send surface. It is
// strictly sequential: recipients are processed in input order, one at
// a time, with a pacing wait between consecutive recipients. Platform
// rate policies assume per-sender pacing, so the pipeline never fans
// out.
type Pipeline struct {
	service *Service
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline over the given service.
func NewPipeline(service *Service, logger *slog.Logger) *Pipeline {
	return &Pipeline{service: service, logger: logger}
}

// Run processes every recipient in job and returns one result per
// recipient, in input order. A failed check or send is captured in that
// recipient's entry and the batch continues. The limiter's initial
// token lets the first recipient proceed immediately, so the delay
// applies only between recipients and never after the last.
func (p *Pipeline) Run(ctx context.Context, snd Sender, job Job) []Result {
	limiter := rate.NewLimiter(rate.Every(job.Delay), 1)
	results := make([]Result, 0, len(job.Recipients))

	for _, raw := range job.Recipients {
		addr := p.service.Normalize(raw)

		if err := limiter.Wait(ctx); err != nil {
			results = append(results, Result{Recipient: addr, Status: false, Message: err.Error()})
			continue
		}

		results = append(results, p.sendOne(ctx, snd, addr, job))
	}

	p.logger.Info("broadcast complete", "recipients", len(job.Recipients), "failures", countFailures(results))
	return results
}

func (p *Pipeline) sendOne(ctx context.Context, snd Sender, addr string, job Job) Result {
	registered, err := p.service.IsRegistered(ctx, snd, addr)
	if err != nil {
		p.logger.Warn("broadcast recipient check failed", "recipient", addr, "error", err)
		return Result{Recipient: addr, Status: false, Message: err.Error()}
	}
	if !registered {
		return Result{Recipient: addr, Status: false, Message: ResultUnregistered}
	}

	if job.FileURL != "" {
		if _, err := p.service.SendMedia(ctx, snd, addr, job.FileURL, job.Message); err != nil {
			p.logger.Warn("broadcast media send failed", "recipient", addr, "error", err)
			return Result{Recipient: addr, Status: false, Message: err.Error()}
		}
		return Result{Recipient: addr, Status: true, Message: ResultMediaSent}
	}

	if _, err := p.service.SendText(ctx, snd, addr, job.Message); err != nil {
		p.logger.Warn("broadcast send failed", "recipient", addr, "error", err)
		return Result{Recipient: addr, Status: false, Message: err.Error()}
	}
	return Result{Recipient: addr, Status: true, Message: ResultMessageSent}
}

func countFailures(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Status {
			n++
		}
	}
	return n
}
