// Package relay mirrors room broadcasts onto NATS so other processes
// (replays, moderation tools) can follow a room without a websocket.
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

const subjectPrefix = "pixlnary.rooms."

// Publisher is the part of *nats.Conn the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Relay struct {
	pub Publisher
	log *zap.Logger
}

func New(pub Publisher, log *zap.Logger) *Relay {
	return &Relay{pub: pub, log: log.Named("relay")}
}

func Subject(room string) string {
	return subjectPrefix + room + ".events"
}

// Mirror publishes msg on the room's subject. Failures are logged and
// never reach players.
func (r *Relay) Mirror(room string, msg types.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("encode event", zap.String("room", room), zap.String("event", string(msg.Type)), zap.Error(err))
		return
	}
	if err := r.pub.Publish(Subject(room), data); err != nil {
		r.log.Warn("publish event", zap.String("room", room), zap.String("event", string(msg.Type)), zap.Error(err))
	}
}

func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	log = log.Named("nats")
	opts := []nats.Option{
		nats.Name("pixlnary"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}
