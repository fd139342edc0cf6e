package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nibog/internal/metrics"
	"nibog/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProgressNotifier receives the running tally after every recipient.
type ProgressNotifier interface {
	DispatchProgress(progress interface{})
}

// Service runs jobs and persists their per-recipient logs and aggregate run.
// Every run, synchronous or not, is tracked so Shutdown can stop it and wait
// for its final state to be saved.
type Service struct {
	db    *gorm.DB
	delay time.Duration
	hub   ProgressNotifier

	root   context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	runs   sync.WaitGroup
}

func NewService(db *gorm.DB, delay time.Duration, hub ProgressNotifier) *Service {
	root, cancel := context.WithCancel(context.Background())
	return &Service{db: db, delay: delay, hub: hub, root: root, cancel: cancel}
}

// track registers a run. It fails once Shutdown has begun.
func (s *Service) track() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ErrDispatchClosed
	}
	s.runs.Add(1)
	return nil
}

// Run executes job synchronously. Cancelling ctx, or shutting the service
// down, stops the run before the next recipient; the partial result is
// persisted as aborted.
func (s *Service) Run(ctx context.Context, job Job) (Result, error) {
	if err := s.track(); err != nil {
		return Result{}, err
	}
	defer s.runs.Done()

	run, err := s.begin(&job)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.root, cancel)
	defer stop()
	return s.execute(ctx, job, run), nil
}

// Start persists the run and executes it in the background.
func (s *Service) Start(job Job) (string, error) {
	if err := s.track(); err != nil {
		return "", err
	}
	run, err := s.begin(&job)
	if err != nil {
		s.runs.Done()
		return "", err
	}
	go func() {
		defer s.runs.Done()
		s.execute(s.root, job, run)
	}()
	return run.ID, nil
}

// Shutdown refuses new runs, aborts the running ones and waits until their
// results are saved or ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for dispatch runs: %w", ctx.Err())
	}
}

func (s *Service) begin(job *Job) (*models.DispatchRun, error) {
	if job.RunID == "" {
		job.RunID = uuid.NewString()
	}
	run := &models.DispatchRun{
		ID:        job.RunID,
		Channel:   job.Channel,
		Template:  job.Template,
		Total:     len(job.Recipients),
		Status:    models.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("create dispatch run: %w", err)
	}
	return run, nil
}

func (s *Service) execute(ctx context.Context, job Job, run *models.DispatchRun) Result {
	d := Dispatcher{
		Delay:     s.delay,
		OnAttempt: s.record,
		OnProgress: func(r Result) {
			if s.hub != nil {
				s.hub.DispatchProgress(r)
			}
		},
	}
	res := d.Run(ctx, job)

	now := time.Now()
	run.Attempted = res.Attempted
	run.Sent = res.Sent
	run.Failed = res.Failed
	run.Invalid = res.InvalidCount
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	if res.Aborted {
		run.Status = models.RunStatusAborted
	}
	if err := s.db.Save(run).Error; err != nil {
		logrus.WithError(err).WithField("run_id", run.ID).Error("failed to save dispatch run")
	}
	metrics.ObserveDispatch(run.Channel, run.Status, now.Sub(run.StartedAt))

	logrus.WithFields(logrus.Fields{
		"run_id":    res.RunID,
		"channel":   res.Channel,
		"total":     res.Total,
		"attempted": res.Attempted,
		"sent":      res.Sent,
		"failed":    res.Failed,
		"invalid":   res.InvalidCount,
		"status":    run.Status,
	}).Info("dispatch run finished")
	return res
}

func (s *Service) record(a Attempt) {
	if a.Err != nil {
		logrus.WithError(a.Err).WithFields(logrus.Fields{
			"run_id":    a.RunID,
			"channel":   a.Channel,
			"recipient": a.Address,
		}).Warn("notification failed")
	}
	metrics.IncNotification(a.Channel, a.Err == nil)

	entry := models.OutboundLog(a.Channel, a.Address, a.Delivery.Content, a.Delivery.ProviderID, a.RunID, a.Err)
	if err := s.db.Create(&entry).Error; err != nil {
		logrus.WithError(err).Error("failed to write notification log")
	}
}

// Audience returns one recipient per active booking of the event.
func (s *Service) Audience(ctx context.Context, eventID uint) ([]Recipient, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").Preload("Games").
		Where("event_id = ? AND status <> ?", eventID, models.BookingStatusCancelled).
		Order("id").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("load audience: %w", err)
	}
	return FromBookings(bookings), nil
}

func (s *Service) Runs(ctx context.Context, limit int) ([]models.DispatchRun, error) {
	var runs []models.DispatchRun
	err := s.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

func (s *Service) GetRun(ctx context.Context, id string) (*models.DispatchRun, error) {
	var run models.DispatchRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
