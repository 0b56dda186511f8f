package outbox

import "encoding/json"

// Topic names double as event types; one event type per topic.
const (
	EventUserCreated         = "auth.user.created.v1"
	EventAppointmentCreated  = "appointment.created.v1"
	EventAppointmentStatus   = "appointment.status_changed.v1"
	EventAppointmentComplete = "appointment.completed.v1"
	EventSaleRecorded        = "sale.recorded.v1"
)

// Event is the envelope written to the outbox table inside the domain
// transaction. AggregateID keys the Kafka message so events for one aggregate
// stay ordered.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
