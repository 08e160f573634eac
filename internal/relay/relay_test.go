package relay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	got []published
	err error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.got = append(f.got, published{subject, data})
	return f.err
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "pixlnary.rooms.pixlnary.events", Subject("pixlnary"))
}

func TestMirror_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	r := New(pub, zap.NewNop())

	r.Mirror("pixlnary", types.NewMessage(types.EvtPixelUpdated, types.PixelUpdate{X: 1, Y: 2, Color: "#ffffff", Owner: "Bob"}))

	require.Len(t, pub.got, 1)
	assert.Equal(t, "pixlnary.rooms.pixlnary.events", pub.got[0].subject)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.got[0].data, &decoded))
	assert.Equal(t, "pixel-updated", decoded["type"])
	assert.Equal(t, "Bob", decoded["payload"].(map[string]any)["owner"])
}

func TestMirror_PublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	r := New(pub, zap.NewNop())

	assert.NotPanics(t, func() {
		r.Mirror("pixlnary", types.NewMessage(types.EvtBoardCleared, nil))
	})
	assert.Len(t, pub.got, 1)
}
