package models

// DeliveryStatus is the outcome of one external side effect
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliverySkipped DeliveryStatus = "skipped"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery channels reported in outcomes
const (
	ChannelRespondentEmail   = "respondent_email"
	ChannelInternalEmail     = "internal_email"
	ChannelAdminEmail        = "admin_email"
	ChannelConfirmationEmail = "confirmation_email"
	ChannelSheet             = "sheet"
	ChannelReport            = "report"
)

// DeliveryOutcome records what happened to one side effect
type DeliveryOutcome struct {
	Channel string         `json:"channel"`
	Status  DeliveryStatus `json:"status"`
	Error   string         `json:"error,omitempty"`
}

// OK returns true unless the side effect was attempted and failed
func (o DeliveryOutcome) OK() bool {
	return o.Status != DeliveryFailed
}
