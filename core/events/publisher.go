// Package events publishes applied tier transitions to NATS so downstream
// consumers (notification delivery, reporting) can react without coupling
// to the engine.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"fleet-admin/core/transition"
	"fleet-admin/internal/logging"
)

// TransitionEvent is the wire form of an applied transition
type TransitionEvent struct {
	EventType      string    `json:"event_type"`
	OperatorID     string    `json:"operator_id"`
	PreviousTier   string    `json:"previous_tier"`
	NewTier        string    `json:"new_tier"`
	ChangeType     string    `json:"change_type"`
	MonthlyChange  string    `json:"monthly_change"`
	AnnualChange   string    `json:"annual_change"`
	AuditReference string    `json:"audit_reference"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher publishes transition events to NATS
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
	logger        *zap.Logger
}

// NewPublisher connects to NATS
func NewPublisher(natsURL, subjectPrefix string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	if subjectPrefix == "" {
		subjectPrefix = "fleet.transitions"
	}
	return &Publisher{
		nc:            nc,
		subjectPrefix: subjectPrefix,
		logger:        logging.Named("events"),
	}, nil
}

// TransitionApplied implements transition.Notifier. Publishing is
// best-effort: failures are logged and never fail the transition.
func (p *Publisher) TransitionApplied(ctx context.Context, result *transition.Result) {
	event := TransitionEvent{
		EventType:      "tier_transition_applied",
		OperatorID:     result.OperatorID,
		PreviousTier:   result.PreviousTier.String(),
		NewTier:        result.NewTier.String(),
		ChangeType:     string(result.ChangeType),
		MonthlyChange:  result.FinancialImpact.MonthlyChange.String(),
		AnnualChange:   result.FinancialImpact.AnnualChange.String(),
		AuditReference: result.AuditReference,
		Timestamp:      result.EffectiveDate,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshaling transition event", zap.Error(err))
		return
	}

	subject := p.subjectPrefix + "." + string(result.ChangeType)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("publishing transition event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Close drains the connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
