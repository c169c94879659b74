package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"opendart/internal/mcp"
)

const (
	toolWSWriteWait   = 10 * time.Second
	toolWSPongWait    = 60 * time.Second
	toolWSPingEvery   = (toolWSPongWait * 9) / 10
	toolWSMaxInFlight = 8
	toolWSMaxMessage  = 1 << 20
)

var toolWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// ToolStreamHandler runs tool calls over a websocket. Each text message is a
// CallFrame; replies are ResultFrames and may arrive out of order.
type ToolStreamHandler struct {
	registry *mcp.Registry
	log      logrus.FieldLogger
}

func NewToolStreamHandler(registry *mcp.Registry, log logrus.FieldLogger) *ToolStreamHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ToolStreamHandler{registry: registry, log: log.WithField("component", "ws")}
}

func (h *ToolStreamHandler) HandleToolWS(w http.ResponseWriter, r *http.Request) {
	conn, err := toolWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(toolWSMaxMessage)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(toolWSPongWait)); err != nil {
		h.log.WithError(err).Warn("set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(toolWSPongWait))
	})

	writeCh := make(chan mcp.ResultFrame, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(toolWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(toolWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(toolWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sem := semaphore.NewWeighted(toolWSMaxInFlight)
	var calls sync.WaitGroup
	defer func() {
		cancel()
		calls.Wait()
		<-writerDone
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		// Any inbound message proves the peer is alive.
		_ = conn.SetReadDeadline(time.Now().Add(toolWSPongWait))

		var f mcp.CallFrame
		if err := json.Unmarshal(data, &f); err != nil {
			pushToolWS(ctx, writeCh, mcp.ErrorFrame("", mcp.KindInvalidInput, "invalid frame: "+err.Error()))
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		calls.Add(1)
		go func(f mcp.CallFrame) {
			defer calls.Done()
			defer sem.Release(1)
			res := h.registry.Dispatch(ctx, f)
			if res.Error != nil {
				h.log.WithFields(logrus.Fields{"id": res.ID, "tool": res.Tool, "kind": res.Error.Kind}).Debug("frame failed")
			}
			pushToolWS(ctx, writeCh, res)
		}(f)
	}
}

func pushToolWS(ctx context.Context, ch chan<- mcp.ResultFrame, msg mcp.ResultFrame) {
	select {
	case ch <- msg:
	case <-ctx.Done():
	}
}
