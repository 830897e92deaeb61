package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/storage"
)

const consultationMessage = "Consultation request submitted successfully."

// ConsultationResult is the acknowledgement of a consultation request
type ConsultationResult struct {
	RequestID     string                   `json:"requestId"`
	Message       string                   `json:"message"`
	SheetsUpdated bool                     `json:"sheetsUpdated"`
	SheetsError   string                   `json:"sheetsError,omitempty"`
	Deliveries    []models.DeliveryOutcome `json:"deliveries"`
}

// BookConsultation validates a consultation request and delivers it: the advisor
// notification, the requester confirmation and the tabular append run concurrently.
// The request succeeds when the advisor notification was sent or mail is disabled.
func (o *Orchestrator) BookConsultation(ctx context.Context, req models.Consultation) (*ConsultationResult, error) {
	ctx, span := o.tracer.Start(ctx, "delivery.BookConsultation")
	defer span.End()

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.RequestedAt = o.now()

	id := o.newID()
	outcomes := o.runEffects(ctx, id, []effect{
		{channel: models.ChannelAdminEmail, run: func(ctx context.Context) error {
			msg, err := o.composer.ConsultationAdmin(&req)
			if err != nil {
				return err
			}
			return o.sender.Send(ctx, msg)
		}},
		{channel: models.ChannelConfirmationEmail, run: func(ctx context.Context) error {
			msg, err := o.composer.ConsultationConfirmation(&req)
			if err != nil {
				return err
			}
			return o.sender.Send(ctx, msg)
		}},
		{channel: models.ChannelSheet, run: func(ctx context.Context) error {
			if err := o.store.EnsureHeader(ctx, storage.SheetConsultations, storage.ConsultationHeader()); err != nil {
				return err
			}
			return o.store.Append(ctx, storage.SheetConsultations, storage.ConsultationRow(&req, req.RequestedAt))
		}},
	})

	result := &ConsultationResult{
		RequestID:  id,
		Message:    consultationMessage,
		Deliveries: outcomes,
	}
	result.SheetsUpdated, result.SheetsError = sheetStatus(outcomes)

	if primary := find(outcomes, models.ChannelAdminEmail); !primary.OK() {
		return result, fmt.Errorf("%w: consultation notification: %s", ErrDeliveryFailed, primary.Error)
	}

	slog.Info("consultation booked", "request_id", id, "company", req.Company())
	return result, nil
}
