package httpserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"aria/internal/intent"
	"aria/internal/pipeline"
	"aria/internal/speech"
)

// wsCommand is one client instruction on the voice stream.
type wsCommand struct {
	Action         string `json:"action"` // start, text, audio, confirm, cancel
	Text           string `json:"text,omitempty"`
	Audio          string `json:"audio,omitempty"` // base64
	Format         string `json:"format,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
}

// wsReply is one server message on the voice stream.
type wsReply struct {
	Type    string                  `json:"type"` // event, result, committed, error
	Event   *pipeline.Event         `json:"event,omitempty"`
	Actions []intentView            `json:"actions,omitempty"`
	Records []pipeline.CommitRecord `json:"records,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// handleStream runs one websocket voice session. State transitions stream to
// the client as they happen; commands drive the session machine.
func (s *Server) handleStream(c *gin.Context) {
	if s.deps.Sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice sessions are not configured"})
		return
	}
	sessionID := c.Param("session")
	language := c.Query("language")
	userID := currentUser(c)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	session := s.deps.Sessions.GetOrCreate(sessionID, userID, language)
	s.deps.Metrics.SessionOpened()
	defer s.deps.Metrics.SessionClosed()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	outbound := make(chan wsReply, 32)
	done := make(chan struct{})

	// Single writer; the event pump and command replies both feed outbound.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case reply, ok := <-outbound:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			case event, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(wsReply{Type: "event", Event: &event}); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	defer close(done)
	ctx := c.Request.Context()
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			session.Cancel()
			return
		}
		s.dispatchCommand(ctx, session, cmd, outbound)
	}
}

func (s *Server) dispatchCommand(ctx context.Context, session *pipeline.Session, cmd wsCommand, outbound chan<- wsReply) {
	fail := func(err error) {
		select {
		case outbound <- wsReply{Type: "error", Error: err.Error()}:
		default:
		}
	}
	send := func(reply wsReply) {
		select {
		case outbound <- reply:
		default:
		}
	}

	switch cmd.Action {
	case "start":
		if err := session.StartListening(); err != nil {
			fail(err)
		}
	case "text":
		// Async so the read loop keeps consuming cancel frames while the
		// upstream call is in flight. The session rejects a second command
		// with ErrBusy, so at most one of these runs at a time.
		go func() {
			result, err := session.ProcessText(ctx, cmd.Text)
			if err != nil {
				fail(err)
				return
			}
			send(wsReply{Type: "result", Actions: viewsOf(result.All())})
		}()
	case "audio":
		audio, err := base64.StdEncoding.DecodeString(cmd.Audio)
		if err != nil {
			fail(err)
			return
		}
		go func() {
			result, err := session.ProcessAudio(ctx, speech.Request{
				Audio:          audio,
				Format:         cmd.Format,
				TargetLanguage: cmd.TargetLanguage,
			})
			if err != nil {
				fail(err)
				return
			}
			send(wsReply{Type: "result", Actions: viewsOf(result.All())})
		}()
	case "confirm":
		records, err := session.Confirm(ctx)
		if err != nil {
			fail(err)
			return
		}
		send(wsReply{Type: "committed", Records: records})
	case "cancel":
		session.Cancel()
	default:
		send(wsReply{Type: "error", Error: "unknown action " + cmd.Action})
	}
}

func viewsOf(intents []intent.ParsedIntent) []intentView {
	views := make([]intentView, 0, len(intents))
	for _, p := range intents {
		views = append(views, viewOf(p))
	}
	return views
}
