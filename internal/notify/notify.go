// Package notify delivers reminder messages to the desktop, an MQTT broker
// or the log.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// Message is one reminder.
type Message struct {
	Key   string    `json:"key"` // stable scheduler key, e.g. "prayer:Asr"
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"` // instant the reminder was booked for
}

// Notifier delivers a Message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Desktop shows an OS notification.
type Desktop struct {
	Icon  string // image path shown with the notification, may be empty
	Sound bool   // use beeep.Alert, which also plays the system sound
}

// Notify shows msg through beeep.
func (d Desktop) Notify(_ context.Context, msg Message) error {
	var err error
	if d.Sound {
		err = beeep.Alert(msg.Title, msg.Body, d.Icon)
	} else {
		err = beeep.Notify(msg.Title, msg.Body, d.Icon)
	}
	if err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Log writes the message to the global logger.
type Log struct{}

// Notify logs msg at info level.
func (Log) Notify(_ context.Context, msg Message) error {
	log.Info().
		Str("key", msg.Key).
		Time("at", msg.At).
		Str("body", msg.Body).
		Msg(msg.Title)
	return nil
}

// Multi fans a message out to every notifier. All are attempted; their
// errors are joined.
type Multi []Notifier

// Notify delivers msg to every notifier in m.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
