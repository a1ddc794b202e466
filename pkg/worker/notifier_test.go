package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/messaging"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
)

type mail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []mail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail{to, subject, body})
	return nil
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}

func message(t *testing.T, eventType string, data interface{}) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(model.EventEnvelope{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: "42",
		OccurredAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Data:        raw,
	})
	require.NoError(t, err)
	return messaging.Message{Channel: eventType, Payload: payload}
}

func TestNotifier_SendsPrescriptionMail(t *testing.T) {
	mailer := &fakeMailer{}
	m := metrics.New("test", nil)
	n := NewNotifier(&fakeBroker{}, mailer, "pharmacie@example.com", nil, m)

	doctor := int64(7)
	p := model.MedicalPrescription{
		PatientName: "Marie Curie",
		DoctorID:    doctor,
		Status:      model.PrescriptionStatusActive,
		Items: []model.MedicalPrescriptionItem{
			{MedicationID: 3, Quantity: 2},
		},
	}
	require.NoError(t, n.Handle(message(t, model.EventPrescriptionCreated, p)))

	require.Len(t, mailer.sent, 1)
	sent := mailer.sent[0]
	assert.Equal(t, "pharmacie@example.com", sent.to)
	assert.Equal(t, "Nouvelle ordonnance #42", sent.subject)
	assert.Contains(t, sent.body, "Patient: Marie Curie")
	assert.Contains(t, sent.body, "Médecin: 7")
	assert.Contains(t, sent.body, "#3 x2")
	assert.Contains(t, sent.body, "01/03/2024 09:30")
	assert.Equal(t, 1.0, counterValue(t, m.NotificationsSent.WithLabelValues(model.EventPrescriptionCreated, "sent")))
}

func TestNotifier_CancelledEvent(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewNotifier(&fakeBroker{}, mailer, "to@example.com", nil, nil)

	data := map[string]interface{}{"id": 42, "patient_name": "Paul", "status": "CANCELLED"}
	require.NoError(t, n.Handle(message(t, model.EventPrescriptionCancelled, data)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Ordonnance annulée #42", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Statut: CANCELLED")
}

func TestNotifier_IgnoresOtherEvents(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewNotifier(&fakeBroker{}, mailer, "to@example.com", nil, nil)

	require.NoError(t, n.Handle(message(t, model.EventConsultationCreated, map[string]int{"id": 1})))
	assert.Empty(t, mailer.sent)
}

func TestNotifier_Errors(t *testing.T) {
	m := metrics.New("test", nil)
	n := NewNotifier(&fakeBroker{}, &fakeMailer{err: errors.New("smtp down")}, "to@example.com", nil, m)

	err := n.Handle(message(t, model.EventPrescriptionDeleted, map[string]int{"id": 1}))
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, 1.0, counterValue(t, m.NotificationsSent.WithLabelValues(model.EventPrescriptionDeleted, "error")))

	err = n.Handle(messaging.Message{Channel: "prescription.created", Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestNotifier_RunDrainsSubscription(t *testing.T) {
	messages := make(chan messaging.Message, 2)
	mailer := &fakeMailer{}
	n := NewNotifier(&fakeBroker{messages: messages}, mailer, "to@example.com", nil, nil)

	messages <- message(t, model.EventPrescriptionUpdated, map[string]string{"notes": "x"})
	messages <- message(t, model.EventPrescriptionCreated, map[string]string{"patient_name": "A"})
	close(messages)

	assert.NoError(t, n.Run(context.Background()))
	assert.Len(t, mailer.sent, 2)
}
