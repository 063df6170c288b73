package ws

import (
	"encoding/json"

	"github.com/tutorlink/realtime-service/internal/model"
)

// Inbound event names.
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventSend  = "send"
	EventRead  = "read"
)

// Outbound queue names, the two per-user queues multiplexed on one socket.
const (
	QueueMessages = "messages"
	QueueReceipts = "receipts"
)

// InboundFrame is what clients write: an event name plus an envelope.
type InboundFrame struct {
	Event   string         `json:"event"`
	Payload model.Envelope `json:"payload"`
}

// OutboundFrame is what the service writes back, tagged with the queue the
// envelope belongs to.
type OutboundFrame struct {
	Queue   string         `json:"queue"`
	Payload model.Envelope `json:"payload"`
}

func encodeFrame(queue string, env model.Envelope) ([]byte, error) {
	return json.Marshal(OutboundFrame{Queue: queue, Payload: env})
}
