package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakePublisher struct {
	topic   string
	payload []byte
	err     error
}

func (p *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	p.topic = topic
	p.payload = payload.([]byte)
	return doneToken{err: p.err}
}

func TestMQTT_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTT(pub, "home/salah/")

	msg := Message{Key: "prayer:Asr", Title: "Asr", Body: "Asr at 15:40", At: time.Unix(1700000000, 0).UTC()}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.topic != "home/salah/prayer/Asr" {
		t.Errorf("topic = %q, want home/salah/prayer/Asr", pub.topic)
	}

	var got Message
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Title != "Asr" || got.Key != "prayer:Asr" || !got.At.Equal(msg.At) {
		t.Errorf("payload = %+v, want %+v", got, msg)
	}
}

func TestMQTT_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker gone")}
	err := NewMQTT(pub, "").Notify(context.Background(), Message{Key: "tahajjud"})
	if err == nil {
		t.Fatal("expected error")
	}
	if pub.topic != DefaultTopic+"/tahajjud" {
		t.Errorf("topic = %q", pub.topic)
	}
}

// notifierFunc adapts a function to Notifier.
type notifierFunc func(ctx context.Context, msg Message) error

func (f notifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestMulti_AttemptsAll(t *testing.T) {
	var calls int
	ok := notifierFunc(func(context.Context, Message) error { calls++; return nil })
	bad := notifierFunc(func(context.Context, Message) error { calls++; return errors.New("nope") })

	err := Multi{bad, ok, Log{}}.Notify(context.Background(), Message{Title: "Fajr"})
	if err == nil {
		t.Error("expected joined error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	if err := (Multi{}).Notify(context.Background(), Message{}); err != nil {
		t.Errorf("empty Multi: %v", err)
	}
}
