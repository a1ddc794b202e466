package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/messaging"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
	"github.com/jwalitptl/pharmacy-api/pkg/notify"
)

// PrescriptionChannels matches every prescription event channel.
const PrescriptionChannels = "prescription.*"

var subjects = map[string]string{
	model.EventPrescriptionCreated:   "Nouvelle ordonnance",
	model.EventPrescriptionUpdated:   "Ordonnance modifiée",
	model.EventPrescriptionCancelled: "Ordonnance annulée",
	model.EventPrescriptionDeleted:   "Ordonnance supprimée",
}

// prescriptionSummary is the subset of a prescription event that ends up in
// the e-mail. Update events carry only the changed fields.
type prescriptionSummary struct {
	PatientName *string `json:"patient_name"`
	Status      *string `json:"status"`
	DoctorID    *int64  `json:"doctor_id"`
	SiteID      *int64  `json:"site_id"`
	Items       []struct {
		MedicationID int64 `json:"medication_id"`
		Quantity     int   `json:"quantity"`
	} `json:"items"`
}

// Notifier e-mails the pharmacy whenever a prescription changes.
type Notifier struct {
	broker  messaging.Broker
	mailer  notify.Mailer
	to      string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewNotifier(broker messaging.Broker, mailer notify.Mailer, to string, logger *zap.Logger, m *metrics.Metrics) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{broker: broker, mailer: mailer, to: to, logger: logger, metrics: m}
}

// Run subscribes and handles messages until ctx is done or the
// subscription closes.
func (n *Notifier) Run(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, PrescriptionChannels)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", PrescriptionChannels, err)
	}
	n.logger.Info("notifier subscribed", zap.String("pattern", PrescriptionChannels), zap.String("to", n.to))

	for msg := range messages {
		if err := n.Handle(msg); err != nil {
			n.logger.Error("failed to send notification",
				zap.String("channel", msg.Channel), zap.Error(err))
		}
	}
	return ctx.Err()
}

// Handle sends the e-mail for one broker message.
func (n *Notifier) Handle(msg messaging.Message) error {
	var envelope model.EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		n.observe(msg.Channel, "invalid")
		return fmt.Errorf("failed to decode event: %w", err)
	}

	subject, ok := subjects[envelope.Type]
	if !ok {
		n.observe(envelope.Type, "skipped")
		return nil
	}

	var summary prescriptionSummary
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &summary); err != nil {
			n.observe(envelope.Type, "invalid")
			return fmt.Errorf("failed to decode prescription data: %w", err)
		}
	}

	subject = fmt.Sprintf("%s #%s", subject, envelope.AggregateID)
	if err := n.mailer.Send(n.to, subject, renderBody(envelope, summary)); err != nil {
		n.observe(envelope.Type, "error")
		return err
	}
	n.observe(envelope.Type, "sent")
	n.logger.Info("notification sent",
		zap.String("event_type", envelope.Type),
		zap.String("aggregate_id", envelope.AggregateID))
	return nil
}

func (n *Notifier) observe(eventType, status string) {
	if n.metrics != nil {
		n.metrics.NotificationsSent.WithLabelValues(eventType, status).Inc()
	}
}

func renderBody(envelope model.EventEnvelope, s prescriptionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ordonnance: %s\n", envelope.AggregateID)
	fmt.Fprintf(&b, "Événement: %s\n", envelope.Type)
	fmt.Fprintf(&b, "Date: %s\n", envelope.OccurredAt.Format("02/01/2006 15:04"))
	if s.PatientName != nil {
		fmt.Fprintf(&b, "Patient: %s\n", *s.PatientName)
	}
	if s.Status != nil {
		fmt.Fprintf(&b, "Statut: %s\n", *s.Status)
	}
	if s.DoctorID != nil {
		fmt.Fprintf(&b, "Médecin: %d\n", *s.DoctorID)
	}
	if s.SiteID != nil {
		fmt.Fprintf(&b, "Site: %d\n", *s.SiteID)
	}
	if len(s.Items) > 0 {
		b.WriteString("Médicaments:\n")
		for _, item := range s.Items {
			fmt.Fprintf(&b, "  - #%d x%d\n", item.MedicationID, item.Quantity)
		}
	}
	return b.String()
}
