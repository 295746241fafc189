package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/api/metrics"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler pushes the session's projection-change notifications to the
// client over a websocket. The client treats every frame as "re-fetch the
// views you care about"; the frame itself carries only the kind and the
// unread total.
type StreamHandler struct {
	sessions *sync.Manager
	log      zerolog.Logger
}

func NewStreamHandler(sessions *sync.Manager, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{sessions: sessions, log: log}
}

// Stream handles GET /v1/stream.
//
// @Summary      Subscribe to session updates
// @Tags         session
// @Security     BearerAuth
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /v1/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn().Err(err).Str("profile_id", profileID).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Reads are discarded; their only purpose is detecting the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case u, ok := <-updates:
			if !ok {
				// session logged out
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return nil
			}
			if err := conn.WriteJSON(u); err != nil {
				h.log.Debug().Err(err).Str("profile_id", profileID).Msg("stream write failed")
				return nil
			}
			metrics.SessionUpdatesTotal.WithLabelValues(string(u.Kind)).Inc()
		}
	}
}
