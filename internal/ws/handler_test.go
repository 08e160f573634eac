package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/pixlnary-backend/internal/hub"
	"github.com/DoyleJ11/pixlnary-backend/internal/lobby"
	"github.com/DoyleJ11/pixlnary-backend/internal/types"
	"github.com/DoyleJ11/pixlnary-backend/internal/words"
	events "github.com/DoyleJ11/pixlnary-backend/pkg/types"
)

type frame struct {
	Type    events.EventType `json:"type"`
	Version int              `json:"version"`
	Payload json.RawMessage  `json:"payload"`
}

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv, _ := newServerWithHub(t, opts)
	return srv
}

func newServerWithHub(t *testing.T, opts Options) (*httptest.Server, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, lobby.Config{BoardSize: 8, Words: words.MustDefault()}, "pixlnary")
	srv := httptest.NewServer(Handler(h, opts))
	t.Cleanup(srv.Close)
	return srv, h
}

func listLobbies(h *hub.Hub) []string {
	reply := make(chan []string, 1)
	h.Inbox() <- hub.ListLobbies{Reply: reply}
	return <-reply
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

// readUntil skips frames until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want events.EventType) frame {
	t.Helper()
	for i := 0; i < 20; i++ {
		if f := read(t, conn); f.Type == want {
			return f
		}
	}
	t.Fatalf("no %s frame within 20 frames", want)
	return frame{}
}

func write(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func TestHandler_ConnectSendsIdentityAndBoard(t *testing.T) {
	srv := newServer(t, Options{})
	conn := dial(t, srv, "")

	f := read(t, conn)
	require.Equal(t, events.EvtIdentity, f.Type)
	var id events.Identity
	require.NoError(t, json.Unmarshal(f.Payload, &id))
	assert.Equal(t, "Player #1", id.Username)
	assert.NotEmpty(t, id.ConnectionID)

	f = read(t, conn)
	require.Equal(t, events.EvtFullState, f.Type)
	var st events.BoardState
	require.NoError(t, json.Unmarshal(f.Payload, &st))
	assert.Equal(t, 8, st.Size)

	f = read(t, conn)
	require.Equal(t, events.EvtRoleAssigned, f.Type)
	assert.JSONEq(t, `{"role":"drawer"}`, string(f.Payload))
}

func TestHandler_MalformedFrameRejected(t *testing.T) {
	srv := newServer(t, Options{})
	conn := dial(t, srv, "?room=studio")
	readUntil(t, conn, events.EvtLeaderboard)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{not json`)))

	f := readUntil(t, conn, events.EvtRejected)
	assert.JSONEq(t, `{"reason":"INVALID_INPUT"}`, string(f.Payload))

	write(t, conn, map[string]any{"type": "teleport"})
	f = readUntil(t, conn, events.EvtRejected)
	assert.JSONEq(t, `{"reason":"INVALID_INPUT"}`, string(f.Payload))
}

func TestHandler_MalformedPaintDroppedSilently(t *testing.T) {
	srv := newServer(t, Options{})
	conn := dial(t, srv, "?room=quiet")
	readUntil(t, conn, events.EvtLeaderboard)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, raw := range []string{
		`{"type":"paint","x":1.5,"y":0,"color":"#fff"}`,
		`{"type":"paint","y":0,"color":"#fff"}`,
		`{"type":"paint","x":0,"y":0,"color":"` + strings.Repeat("a", 40) + `"}`,
		`{"type":"paint","x":0,"y":0,"color":"lightgoldenrodyellow"}`,
	} {
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
	}

	// the next frame answers this request, not any of the paints above
	write(t, conn, map[string]any{"type": "room-state"})
	f := read(t, conn)
	assert.Equal(t, events.EvtRoomState, f.Type)
}

func TestHandler_EmptyRoomIsRemoved(t *testing.T) {
	srv, h := newServerWithHub(t, Options{})

	home := dial(t, srv, "")
	readUntil(t, home, events.EvtLeaderboard)
	side := dial(t, srv, "?room=side")
	readUntil(t, side, events.EvtLeaderboard)
	assert.ElementsMatch(t, []string{"pixlnary", "side"}, listLobbies(h))

	side.Close(websocket.StatusNormalClosure, "")
	home.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		codes := listLobbies(h)
		return len(codes) == 1 && codes[0] == "pixlnary"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHandler_RoundOverWebsocket(t *testing.T) {
	srv := newServer(t, Options{})
	drawer := dial(t, srv, "?room=r1")
	readUntil(t, drawer, events.EvtLeaderboard)
	guesser := dial(t, srv, "?room=r1")
	readUntil(t, guesser, events.EvtRoleAssigned)

	write(t, guesser, map[string]any{"type": "start-round"})

	f := readUntil(t, drawer, events.EvtSecretWord)
	var word events.SecretWord
	require.NoError(t, json.Unmarshal(f.Payload, &word))
	assert.Contains(t, words.Default, word.Word)

	write(t, drawer, map[string]any{"type": "paint", "x": 2, "y": 3, "color": "#00ff00"})
	f = readUntil(t, guesser, events.EvtPixelUpdated)
	assert.JSONEq(t, `{"x":2,"y":3,"color":"#00ff00","owner":"Player #1"}`, string(f.Payload))

	write(t, guesser, map[string]any{"type": "guess", "text": strings.ToUpper(word.Word)})
	f = readUntil(t, drawer, events.EvtRoundWon)
	var won events.RoundWon
	require.NoError(t, json.Unmarshal(f.Payload, &won))
	assert.Equal(t, word.Word, won.Word)
}

func TestHandler_RoomCodeTooLong(t *testing.T) {
	srv := newServer(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + strings.Repeat("x", 65)
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, 400, resp.StatusCode)
	}
}

func TestAcceptOptions(t *testing.T) {
	assert.True(t, acceptOptions([]string{"*"}).InsecureSkipVerify)

	opts := acceptOptions([]string{"http://localhost:5173", "pixlnary.app"})
	assert.False(t, opts.InsecureSkipVerify)
	assert.Equal(t, []string{"localhost:5173", "pixlnary.app"}, opts.OriginPatterns)
}

func TestToCommand(t *testing.T) {
	x, y := 4, 5
	cmd := toCommand(types.ClientMessage{Type: "paint", X: &x, Y: &y, Color: "#fff", Text: "ignored"})
	assert.Equal(t, lobby.Command{Type: lobby.CmdPaint, X: 4, Y: 5, Color: "#fff"}, cmd)

	cmd = toCommand(types.ClientMessage{Type: "rename", Name: "Bob"})
	assert.Equal(t, lobby.Command{Type: lobby.CmdRename, Name: "Bob"}, cmd)
}
