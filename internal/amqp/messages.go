package amqp

import (
	"encoding/json"
	"time"

	"panel/internal/core"
)

// AlertsMessage carries the alerts raised by one snapshot. The payload is
// self-contained so consumers never need to recompute the snapshot.
type AlertsMessage struct {
	From      core.Date    `json:"from"`
	To        core.Date    `json:"to"`
	Label     string       `json:"label,omitempty"`
	Alerts    []core.Alert `json:"alerts"`
	Empty     bool         `json:"empty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewAlertsMessage copies the range and alerts out of a snapshot.
func NewAlertsMessage(s core.Snapshot) *AlertsMessage {
	alerts := make([]core.Alert, len(s.Alerts))
	copy(alerts, s.Alerts)
	return &AlertsMessage{
		From:      s.Range.From,
		To:        s.Range.To,
		Label:     s.Range.Label,
		Alerts:    alerts,
		Empty:     s.Empty,
		Timestamp: time.Now(),
	}
}

// Range rebuilds the date range the alerts were computed for.
func (m *AlertsMessage) Range() core.DateRange {
	return core.NewDateRange(m.From, m.To, m.Label)
}

func (m *AlertsMessage) HasDanger() bool {
	for _, a := range m.Alerts {
		if a.Tone == core.ToneDanger {
			return true
		}
	}
	return false
}

func (m *AlertsMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AlertsMessageFromJSON(data []byte) (*AlertsMessage, error) {
	var msg AlertsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Alerts == nil {
		msg.Alerts = []core.Alert{}
	}
	return &msg, nil
}
