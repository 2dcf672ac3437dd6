package types

import (
	"time"
)

type Notifier interface {
	LifecycleManager
	Publish(topic string, payload interface{}) error
}

type NotifierCreator func(config interface{}) (Notifier, error)

type NotificationMessage struct {
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	MessageID string      `json:"message_id"`
}
