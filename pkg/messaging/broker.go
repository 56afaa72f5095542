package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// PushMessage is what the dispatcher publishes for device push gateways.
type PushMessage struct {
	PatientID    string `json:"patientId"`
	Handle       string `json:"handle"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Sound        string `json:"sound,omitempty"`
	MedicationID string `json:"medicationId"`
	DrugName     string `json:"drugName"`
	Dosage       string `json:"dosage"`
}
