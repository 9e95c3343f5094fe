package wizard

import (
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/ayurdiet-portal/internal/apperr"
	"github.com/wolfman30/ayurdiet-portal/internal/session"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

// InboundFrame is what the dashboard sends over the socket.
type InboundFrame struct {
	Type  string `json:"type"` // "open", "answer", "ping"
	Token string `json:"token,omitempty"`
	Text  string `json:"text,omitempty"`
}

// OutboundFrame is what the socket sends back.
type OutboundFrame struct {
	Type  string               `json:"type"` // "state", "typing", "error", "pong"
	View  *View                `json:"view,omitempty"`
	Error *apperr.Presentation `json:"error,omitempty"`
}

// Socket serves the wizard over a websocket. The request must already carry
// an authenticated session in its context.
type Socket struct {
	svc    *Service
	logger *logging.Logger
}

func NewSocket(svc *Service, logger *logging.Logger) *Socket {
	if logger == nil {
		logger = logging.Default()
	}
	return &Socket{svc: svc, logger: logger}
}

func (s *Socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		s.serve(conn, r, sess.User)
	}).ServeHTTP(w, r)
}

func (s *Socket) serve(conn *websocket.Conn, r *http.Request, user session.User) {
	ctx := r.Context()
	s.logger.Info("wizard socket opened", "patient_id", user.UID)

	if view, err := s.svc.Current(ctx, user); err == nil {
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "state", View: view})
	}

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			s.logger.Debug("wizard socket closed", "patient_id", user.UID, "error", err)
			return
		}

		var (
			view *View
			err  error
		)
		switch strings.ToLower(frame.Type) {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		case "open":
			view, err = s.svc.Open(ctx, user)
		case "answer":
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "typing"})
			view, err = s.svc.Submit(ctx, user, frame.Token, frame.Text)
		default:
			continue
		}

		if err != nil {
			p := apperr.Present(err)
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Error: &p})
			continue
		}
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "state", View: view})
	}
}
