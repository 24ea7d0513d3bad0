package httpapi

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleAuditTail streams live audit entries over a WebSocket. Each entry
// is sent as one JSON message; slow readers are disconnected rather than
// allowed to block the recorder.
func (s *Server) handleAuditTail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Audit == nil {
			http.Error(w, "audit recorder not configured", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			s.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		entries, cancel := s.cfg.Audit.Subscribe()
		defer cancel()

		s.logger.Info("audit tail attached", "remote_addr", r.RemoteAddr)
		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusNormalClosure, "client gone")
				return
			case entry, ok := <-entries:
				if !ok {
					_ = conn.Close(websocket.StatusGoingAway, "recorder closed")
					return
				}
				if err := wsjson.Write(ctx, conn, entry); err != nil {
					s.logger.Debug("audit tail write failed", "error", err)
					return
				}
			}
		}
	}
}
