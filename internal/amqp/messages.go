package amqp

import (
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// EncodeEvent renders the wire form of a transaction event.
func EncodeEvent(ev core.TransactionEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a transaction event and rejects unknown types.
func DecodeEvent(data []byte) (core.TransactionEvent, error) {
	var ev core.TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.TransactionEvent{}, err
	}
	switch ev.Type {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return core.TransactionEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
