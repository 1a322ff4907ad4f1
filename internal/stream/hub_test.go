package stream

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func filledFrame(shade byte) *ppu.Frame {
	f := &ppu.Frame{}
	for i := range f.Pix {
		f.Pix[i] = shade
	}
	return f
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readUntil reads frames until one carries the given shade.
func readUntil(t *testing.T, conn *websocket.Conn, shade byte) []byte {
	t.Helper()
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != websocket.BinaryMessage {
			t.Fatalf("message type %d, want binary", typ)
		}
		if len(msg) != 1+ppu.Width*ppu.Height || msg[0] != MsgFrame {
			t.Fatalf("bad frame message: len=%d type=%d", len(msg), msg[0])
		}
		if msg[1] == shade {
			return msg
		}
	}
}

func TestHub_NewViewerGetsLatestThenLive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(quietLogger())
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Publish(filledFrame(1))
	conn := dial(t, srv)
	defer conn.Close()

	readUntil(t, conn, 1)
	h.Publish(filledFrame(3))
	msg := readUntil(t, conn, 3)
	if !bytes.Equal(msg[1:], filledFrame(3).Pix[:]) {
		t.Fatal("frame payload mismatch")
	}
}

func TestHub_PublishWithoutViewersDoesNotBlock(t *testing.T) {
	h := NewHub(quietLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(filledFrame(byte(i & 3)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no hub running")
	}
}

func TestHub_CancelClosesViewers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(quietLogger())
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Publish(filledFrame(2))
	conn := dial(t, srv)
	defer conn.Close()
	readUntil(t, conn, 2)

	cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal close, got %v", err)
			}
			return
		}
	}
}
