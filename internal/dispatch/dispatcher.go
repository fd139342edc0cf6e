package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job describes one bulk send. Prepare resolves the address of a recipient and
// reports whether it may be attempted; Send performs exactly one attempt.
type Job struct {
	RunID      string
	Channel    string
	Template   string
	Recipients []Recipient
	Prepare    func(r Recipient) (address string, ok bool)
	Send       func(ctx context.Context, address string, r Recipient) (Delivery, error)
}

// Delivery is what a successful or failed attempt produced.
type Delivery struct {
	Content    string
	ProviderID string
}

// Attempt is reported once per attempted recipient.
type Attempt struct {
	RunID    string
	Channel  string
	Index    int
	Address  string
	Delivery Delivery
	Err      error
}

type Result struct {
	RunID        string   `json:"run_id"`
	Channel      string   `json:"channel"`
	Total        int      `json:"total"`
	Attempted    int      `json:"attempted"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	InvalidCount int      `json:"invalid_count"`
	Invalid      []string `json:"invalid"`
	Aborted      bool     `json:"aborted"`
}

// Dispatcher sends a job's messages one at a time, pausing Delay between
// attempts. There is no retry: a failed attempt is counted and the run moves on.
type Dispatcher struct {
	Delay      time.Duration
	OnAttempt  func(Attempt)
	OnProgress func(Result)
}

func (d *Dispatcher) Run(ctx context.Context, job Job) Result {
	res := Result{
		RunID:   job.RunID,
		Channel: job.Channel,
		Total:   len(job.Recipients),
		Invalid: []string{},
	}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}

	first := true
	for i, r := range job.Recipients {
		address, ok := job.Prepare(r)
		if !ok {
			res.InvalidCount++
			if address == "" {
				address = fmt.Sprintf("row %d", i+1)
			}
			res.Invalid = append(res.Invalid, address)
			d.progress(res)
			continue
		}

		if !first {
			if err := sleep(ctx, d.Delay); err != nil {
				res.Aborted = true
				return res
			}
		}
		if ctx.Err() != nil {
			res.Aborted = true
			return res
		}
		first = false

		delivery, err := job.Send(ctx, address, r)
		res.Attempted++
		if err != nil {
			res.Failed++
		} else {
			res.Sent++
		}

		if d.OnAttempt != nil {
			d.OnAttempt(Attempt{
				RunID:    res.RunID,
				Channel:  job.Channel,
				Index:    i,
				Address:  address,
				Delivery: delivery,
				Err:      err,
			})
		}
		d.progress(res)
	}
	return res
}

func (d *Dispatcher) progress(res Result) {
	if d.OnProgress != nil {
		d.OnProgress(res)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
