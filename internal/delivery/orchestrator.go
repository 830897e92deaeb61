package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/mail"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/report"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/services"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/storage"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/telemetry"
)

// ErrDeliveryFailed is returned when the primary side effect of a request failed
var ErrDeliveryFailed = errors.New("delivery failed")

// DefaultEffectTimeout bounds each side effect independently of the caller's context
const DefaultEffectTimeout = 60 * time.Second

// Deps are the collaborators of the orchestrator
type Deps struct {
	Catalog   *catalog.Catalog
	Composer  *mail.Composer
	Sender    mail.Sender
	Store     storage.Repository
	Guard     services.Guard
	Assembler *report.Assembler
	Renderer  report.Renderer
}

// Orchestrator runs the delivery pipeline of assessments and consultation requests
type Orchestrator struct {
	catalog   *catalog.Catalog
	composer  *mail.Composer
	sender    mail.Sender
	store     storage.Repository
	guard     services.Guard
	assembler *report.Assembler
	renderer  report.Renderer

	now           func() time.Time
	newID         func() string
	effectTimeout time.Duration
	tracer        trace.Tracer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock sets the time source for submission timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator sets the submission ID generator
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// WithEffectTimeout sets the time budget of each side effect
func WithEffectTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.effectTimeout = d
		}
	}
}

// New creates an orchestrator. Catalog and Composer are required; missing sinks
// are replaced by disabled ones whose outcomes are reported as skipped.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if deps.Composer == nil {
		return nil, fmt.Errorf("mail composer is required")
	}

	o := &Orchestrator{
		catalog:       deps.Catalog,
		composer:      deps.Composer,
		sender:        deps.Sender,
		store:         deps.Store,
		guard:         deps.Guard,
		assembler:     deps.Assembler,
		renderer:      deps.Renderer,
		now:           time.Now,
		newID:         uuid.NewString,
		effectTimeout: DefaultEffectTimeout,
		tracer:        telemetry.Tracer("delivery"),
	}
	if o.sender == nil {
		o.sender = mail.Disabled{}
	}
	if o.store == nil {
		o.store = storage.Disabled{Reason: "no tabular store configured"}
	}
	if o.guard == nil {
		o.guard = services.NoopGuard{}
	}
	if o.assembler == nil {
		o.assembler = report.NewAssembler()
	}
	if o.renderer == nil {
		o.renderer = report.NewPDFRenderer()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// effect is one independent side effect of a request
type effect struct {
	channel string
	run     func(ctx context.Context) error
}

// runEffects runs every effect concurrently. Effects are detached from the caller's
// cancellation and bounded by the effect timeout; one failing never stops another.
func (o *Orchestrator) runEffects(ctx context.Context, requestID string, effects []effect) []models.DeliveryOutcome {
	base := context.WithoutCancel(ctx)
	outcomes := make([]models.DeliveryOutcome, len(effects))

	var wg sync.WaitGroup
	for i, e := range effects {
		wg.Add(1)
		go func(i int, e effect) {
			defer wg.Done()

			ectx, cancel := context.WithTimeout(base, o.effectTimeout)
			defer cancel()
			ectx, span := o.tracer.Start(ectx, "delivery."+e.channel,
				trace.WithAttributes(attribute.String("request.id", requestID)))
			defer span.End()

			start := time.Now()
			err := e.run(ectx)
			out := outcome(e.channel, err)
			outcomes[i] = out

			span.SetAttributes(attribute.String("delivery.status", string(out.Status)))
			if out.Status == models.DeliveryFailed {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			attrs := []any{
				"request_id", requestID,
				"channel", e.channel,
				"status", out.Status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch out.Status {
			case models.DeliveryFailed:
				slog.Error("delivery failed", append(attrs, "error", err)...)
			case models.DeliverySkipped:
				slog.Warn("delivery skipped", append(attrs, "reason", err)...)
			default:
				slog.Info("delivery sent", attrs...)
			}
		}(i, e)
	}
	wg.Wait()

	return outcomes
}

func outcome(channel string, err error) models.DeliveryOutcome {
	switch {
	case err == nil:
		return models.DeliveryOutcome{Channel: channel, Status: models.DeliverySent}
	case errors.Is(err, mail.ErrDisabled), errors.Is(err, mail.ErrNoRecipients), errors.Is(err, storage.ErrNotConfigured):
		return models.DeliveryOutcome{Channel: channel, Status: models.DeliverySkipped, Error: err.Error()}
	default:
		return models.DeliveryOutcome{Channel: channel, Status: models.DeliveryFailed, Error: err.Error()}
	}
}

func find(outcomes []models.DeliveryOutcome, channel string) models.DeliveryOutcome {
	for _, o := range outcomes {
		if o.Channel == channel {
			return o
		}
	}
	return models.DeliveryOutcome{Channel: channel, Status: models.DeliverySkipped}
}

// sheetStatus reports the tabular outcome the way the API exposes it
func sheetStatus(outcomes []models.DeliveryOutcome) (bool, string) {
	o := find(outcomes, models.ChannelSheet)
	return o.Status == models.DeliverySent, o.Error
}
