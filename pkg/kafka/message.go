package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// ParseCatalogUpdate parses the message value as a catalog update payload.
func (m *IncomingMessage) ParseCatalogUpdate() (*models.CatalogUpdateMessage, error) {
	var msg models.CatalogUpdateMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
