package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"aria/internal/intent"
	"aria/internal/pipeline"
	"aria/internal/speech"
	"aria/internal/store"
)

// blockingClassifier parks in Parse until its context is cancelled.
type blockingClassifier struct {
	started  chan struct{}
	released chan struct{}
}

func (b *blockingClassifier) Parse(ctx context.Context, _ string, _ intent.ParseContext) (intent.Result, error) {
	close(b.started)
	<-ctx.Done()
	close(b.released)
	return intent.Result{}, ctx.Err()
}

func dialStream(t *testing.T, classifier intent.Classifier) (*websocket.Conn, func()) {
	t.Helper()
	memory := store.NewMemory()
	transcriber := &speech.MockTranscriber{Text: "buy milk tomorrow", Lang: "en"}
	deps := Dependencies{
		Speech:     transcriber,
		Classifier: classifier,
		Stores:     memory.Stores(),
		Sessions:   pipeline.NewManager(transcriber, classifier, pipeline.NewCommitter(memory.Stores()), nil),
	}
	server := New(testConfig(), deps)
	ts := httptest.NewServer(server.Handler())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/voice/stream/s1"
	header := http.Header{"Authorization": {"Bearer alice-token"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

// A cancel frame must interrupt a parse that is still waiting on the
// upstream model, which requires the read loop to stay responsive while
// the parse runs.
func TestStreamCancelInterruptsInFlightParse(t *testing.T) {
	classifier := &blockingClassifier{
		started:  make(chan struct{}),
		released: make(chan struct{}),
	}
	conn, cleanup := dialStream(t, classifier)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(wsCommand{Action: "start"}))
	require.NoError(t, conn.WriteJSON(wsCommand{Action: "text", Text: "buy milk"}))

	select {
	case <-classifier.started:
	case <-time.After(2 * time.Second):
		t.Fatal("parse never started")
	}

	require.NoError(t, conn.WriteJSON(wsCommand{Action: "cancel"}))

	select {
	case <-classifier.released:
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not reach the in-flight parse")
	}

	// The session lands back in idle once the cancelled parse unwinds.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var reply wsReply
		require.NoError(t, conn.ReadJSON(&reply))
		if reply.Type == "event" && reply.Event.State == pipeline.StateIdle {
			return
		}
	}
}
