package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Entity string

const (
	EntityMessage    Entity = "message"
	EntityAttachment Entity = "attachment"
	EntityReaction   Entity = "reaction"
	EntityReceipt    Entity = "receipt"
)

type Op string

const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Event is one committed change on a thread. Payload is the affected
// row as JSON; for deletes it is the row as of deletion, so consumers
// can cascade by identity without a lookup.
type Event struct {
	Entity   Entity          `json:"entity"`
	Op       Op              `json:"op"`
	ThreadID uuid.UUID       `json:"thread_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Channel returns the logical channel name for a thread's change feed.
func Channel(threadID uuid.UUID) string {
	return "chat.thread." + threadID.String()
}

func NewEvent(entity Entity, op Op, threadID uuid.UUID, row any) (Event, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", entity, err)
	}
	return Event{Entity: entity, Op: op, ThreadID: threadID, Payload: raw}, nil
}

func (e Event) Decode(into any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event has no payload")
	}
	return json.Unmarshal(e.Payload, into)
}
