package amqp

import (
	"encoding/json"
	"time"
)

// AppointmentsChangedMessage announces that the appointment collection moved
// to a new version. Consumers read the data itself from the database.
type AppointmentsChangedMessage struct {
	Version   uint64    `json:"version"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAppointmentsChangedMessage(version uint64, count int) *AppointmentsChangedMessage {
	return &AppointmentsChangedMessage{
		Version:   version,
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (m *AppointmentsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AppointmentsChangedMessageFromJSON(data []byte) (*AppointmentsChangedMessage, error) {
	var msg AppointmentsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
