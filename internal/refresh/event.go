package refresh

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// Event announces that an upstream report table was reloaded for a seller.
// Attributes with the same names fill any field the JSON body leaves blank.
type Event struct {
	EventID    string           `json:"event_id"`
	Seller     string           `json:"seller_name"`
	Report     enums.ReportKind `json:"report,omitempty"`
	OccurredAt time.Time        `json:"occurred_at,omitempty"`
	Warm       *bool            `json:"warm,omitempty"`
}

func decodeEvent(msg *gcppubsub.Message) (*Event, uuid.UUID, error) {
	var event Event
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil, uuid.Nil, fmt.Errorf("decode refresh event: %w", err)
		}
	}

	event.EventID = firstNonBlank(event.EventID, msg.Attributes["event_id"])
	event.Seller = firstNonBlank(event.Seller, msg.Attributes["seller_name"])
	if event.Report == "" {
		event.Report = enums.ReportKind(strings.TrimSpace(msg.Attributes["report"]))
	}

	if event.EventID == "" {
		return nil, uuid.Nil, errors.New("event_id missing")
	}
	id, err := uuid.Parse(event.EventID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("event_id: %w", err)
	}
	if event.Seller == "" {
		return nil, uuid.Nil, errors.New("seller_name missing")
	}
	if event.Report != "" {
		if event.Report, err = enums.ParseReportKind(string(event.Report)); err != nil {
			return nil, uuid.Nil, fmt.Errorf("report: %w", err)
		}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = msg.PublishTime
	}
	return &event, id, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
