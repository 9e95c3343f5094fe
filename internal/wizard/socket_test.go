package wizard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

func withUser(user session.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithSession(r.Context(), &session.Session{User: user, Token: "bearer"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func receive(t *testing.T, conn *websocket.Conn) OutboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame OutboundFrame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func TestSocketConversation(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestWizard(gw)
	srv := httptest.NewServer(withUser(patientUser, NewSocket(svc, logging.New("error"))))
	defer srv.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "ping"}))
	assert.Equal(t, "pong", receive(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "open"}))
	opened := receive(t, conn)
	require.Equal(t, "state", opened.Type)
	require.NotNil(t, opened.View)
	token := opened.View.Token

	var last OutboundFrame
	for _, answer := range []string{"34", "Female", "Vata-Pitta", "Pitta"} {
		require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "answer", Token: token, Text: answer}))
		assert.Equal(t, "typing", receive(t, conn).Type)
		last = receive(t, conn)
	}
	require.Equal(t, "state", last.Type)
	assert.Equal(t, 4, last.View.Step)

	require.NoError(t, websocket.JSON.Send(conn, InboundFrame{Type: "answer", Token: "stale", Text: "34"}))
	assert.Equal(t, "typing", receive(t, conn).Type)
	failed := receive(t, conn)
	require.Equal(t, "error", failed.Type)
	assert.Equal(t, "conflict", failed.Error.Kind)
}

func TestSocketRequiresSession(t *testing.T) {
	svc, _ := newTestWizard(&fakeGateway{})
	rec := httptest.NewRecorder()
	NewSocket(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wizard/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
