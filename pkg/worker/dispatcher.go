package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jwalitptl/patient-companion/internal/email"
	"github.com/jwalitptl/patient-companion/internal/model"
	"github.com/jwalitptl/patient-companion/internal/notifier"
	"github.com/jwalitptl/patient-companion/internal/repository"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/messaging"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
	"github.com/jwalitptl/patient-companion/pkg/security"
)

const (
	ChannelPush  = "push"
	ChannelEmail = "email"
)

var tracer = otel.Tracer("github.com/jwalitptl/patient-companion/pkg/worker")

// DuePlatform is the side of a notification platform that fires reminders.
type DuePlatform interface {
	Due(ctx context.Context, now time.Time, limit int) ([]notifier.Due, error)
	Rearm(ctx context.Context, d notifier.Due, firedAt time.Time) error
}

type DispatcherConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	PushChannel   string
}

// Dispatcher fires due reminders: it publishes a push message, mails a copy
// to patients with an enabled reminder contact and records every attempt.
type Dispatcher struct {
	platform   DuePlatform
	broker     messaging.Broker
	deliveries repository.DeliveryRepository
	contacts   repository.ContactRepository
	mailer     email.Service
	encryptor  security.Encryptor
	config     DispatcherConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type DispatcherDeps struct {
	Platform   DuePlatform
	Broker     messaging.Broker
	Deliveries repository.DeliveryRepository
	Encryptor  security.Encryptor
	// Contacts and Mailer are optional; without both no e-mail is sent.
	Contacts repository.ContactRepository
	Mailer   email.Service
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

func NewDispatcher(deps DispatcherDeps, config DispatcherConfig) *Dispatcher {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}
	if config.PushChannel == "" {
		panic("PushChannel must be set")
	}

	return &Dispatcher{
		platform:   deps.Platform,
		broker:     deps.Broker,
		deliveries: deps.Deliveries,
		contacts:   deps.Contacts,
		mailer:     deps.Mailer,
		encryptor:  deps.Encryptor,
		config:     config,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("Starting reminder dispatcher", "channel", d.config.PushChannel)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down reminder dispatcher")
			return
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil {
				d.logger.Error(err, "Failed to dispatch reminders")
			}
		}
	}
}

// RunOnce fires one batch of due reminders and returns how many it handled.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "dispatcher.run")
	defer span.End()

	due, err := d.platform.Due(ctx, d.now(), d.config.BatchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "due lookup failed")
		return 0, fmt.Errorf("failed to get due reminders: %w", err)
	}
	span.SetAttributes(attribute.Int("reminders.due", len(due)))

	for _, item := range due {
		if err := d.dispatch(ctx, item); err != nil {
			d.logger.WithContext(ctx).Error(err, "Failed to dispatch reminder",
				"patient_id", item.PatientID,
				"handle", item.Handle)
		}
	}
	return len(due), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, item notifier.Due) (err error) {
	ctx, span := tracer.Start(ctx, "dispatcher.dispatch")
	span.SetAttributes(
		attribute.String("reminder.handle", item.Handle),
		attribute.String("reminder.medication_id", item.Request.Data.MedicationID),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch failed")
		}
		span.End()
	}()

	firedAt := d.now()
	req := item.Request
	msg := messaging.PushMessage{
		PatientID:    item.PatientID,
		Handle:       item.Handle,
		Title:        req.Title,
		Body:         req.Body,
		Sound:        req.Sound,
		MedicationID: req.Data.MedicationID,
		DrugName:     req.Data.DrugName,
		Dosage:       req.Data.Dosage,
	}

	pushErr := d.retry(ctx, func() error {
		return d.broker.Publish(ctx, d.config.PushChannel, msg)
	})
	d.record(ctx, item, ChannelPush, firedAt, pushErr)

	if err := d.sendEmail(ctx, item, firedAt); err != nil {
		d.logger.Error(err, "Failed to e-mail reminder", "patient_id", item.PatientID)
	}

	// A failed fire is not retried on the next poll; the delivery row keeps the error.
	if err := d.platform.Rearm(ctx, item, firedAt); err != nil {
		return fmt.Errorf("failed to rearm reminder: %w", err)
	}
	return pushErr
}

func (d *Dispatcher) sendEmail(ctx context.Context, item notifier.Due, firedAt time.Time) error {
	if d.contacts == nil || d.mailer == nil {
		return nil
	}

	contact, err := d.contacts.Get(ctx, item.PatientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("get_contact", "error").Inc()
		return err
	}
	d.metrics.DatabaseOperations.WithLabelValues("get_contact", "success").Inc()
	if !contact.Enabled {
		return nil
	}

	sendErr := d.mailer.SendReminder(ctx, contact.Email, item.Request.Title, item.Request.Body)
	d.record(ctx, item, ChannelEmail, firedAt, sendErr)
	return sendErr
}

func (d *Dispatcher) record(ctx context.Context, item notifier.Due, channel string, firedAt time.Time, sendErr error) {
	delivery := &model.Delivery{
		PatientID:    item.PatientID,
		Handle:       item.Handle,
		MedicationID: item.Request.Data.MedicationID,
		Channel:      channel,
		Status:       model.DeliveryStatusSent,
		DueAt:        item.DueAt,
		FiredAt:      firedAt,
	}
	if sendErr != nil {
		d.metrics.DeliveryFailures.WithLabelValues(channel).Inc()
		errStr := sendErr.Error()
		delivery.Status = model.DeliveryStatusFailed
		delivery.ErrorMessage = &errStr
	} else {
		d.metrics.RemindersDelivered.WithLabelValues(channel).Inc()
		d.metrics.DeliveryLatency.Observe(firedAt.Sub(item.DueAt).Seconds())
	}

	body, err := d.encryptor.Encrypt([]byte(item.Request.Body))
	if err != nil {
		d.logger.Error(err, "Failed to encrypt delivery body", "handle", item.Handle)
		return
	}
	delivery.Body = body

	if err := d.deliveries.Create(ctx, delivery); err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("create_delivery", "error").Inc()
		d.logger.Error(err, "Failed to record delivery", "handle", item.Handle, "channel", channel)
		return
	}
	d.metrics.DatabaseOperations.WithLabelValues("create_delivery", "success").Inc()
}

func (d *Dispatcher) retry(ctx context.Context, fn func() error) error {
	return retry(ctx, d.config.RetryAttempts, d.config.RetryDelay, func() error {
		err := fn()
		if err != nil {
			d.metrics.DispatchRetries.Inc()
		}
		return err
	})
}

// retry runs fn up to attempts times, delay apart, giving up early when ctx ends.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1))
	return backoff.Retry(fn, backoff.WithContext(b, ctx))
}
