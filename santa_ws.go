/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/secretsanta/groups"
	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/reveal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: timeout,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is what browsers send over the socket.
type ClientMessage struct {
	Type string `json:"type"` // "identify"
	Name string `json:"name,omitempty"`
}

// GroupMessage is pushed on connect and after every change to the group or
// to the name this connection claims. Reveal only ever carries this
// connection's own match.
type GroupMessage struct {
	Type   string        `json:"type"` // "group"
	Group  models.View   `json:"group"`
	Reveal reveal.Result `json:"reveal"`
}

type Client struct {
	conn    *websocket.Conn
	send    chan any
	names   chan string
	tracker *reveal.Tracker
}

func serveGroupSocket(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := groups.NormalizeCode(ps.ByName("code"))

		// Subscribe first so nothing committed after the read below is missed.
		sub := a.groups.Subscribe(code)

		g, err := a.groups.Get(r.Context(), code)
		if err != nil {
			sub.Close()
			a.fail(w, r, err)

			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			name = a.jar.Load(r)[code].Name
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			sub.Close()
			logf("ERROR: websocket upgrade for %s failed: %v", code, err)

			return
		}

		client := &Client{
			conn:    conn,
			send:    make(chan any, 8),
			names:   make(chan string),
			tracker: reveal.NewTracker(name),
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		logf("GROUPS: Watcher connected to %s from %s", code, realIP(r))

		go client.writePump()
		go client.watch(ctx, a, sub, g)

		client.readPump(ctx)

		logf("GROUPS: Watcher disconnected from %s", code)
	}
}

func (c *Client) message(g *models.Group, res reveal.Result) GroupMessage {
	return GroupMessage{Type: "group", Group: g.View(), Reveal: res}
}

// watch is the only sender on c.send and closes it on return.
func (c *Client) watch(ctx context.Context, a *app, sub *groups.Subscription, g *models.Group) {
	defer close(c.send)
	defer sub.Close()

	var poll <-chan time.Time
	if a.cfg.pollInterval > 0 {
		ticker := time.NewTicker(a.cfg.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	push := func(msg GroupMessage) bool {
		select {
		case c.send <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	cur := g
	if !push(c.message(cur, c.tracker.SetGroup(cur))) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub.C:
			if !ok {
				return
			}
			if next.Version <= cur.Version {
				continue
			}
			cur = next
			if !push(c.message(cur, c.tracker.SetGroup(cur))) {
				return
			}
		case name := <-c.names:
			if !push(c.message(cur, c.tracker.SetName(name))) {
				return
			}
		case <-poll:
			if err := a.groups.Refresh(ctx, cur.Code); err != nil && ctx.Err() == nil {
				slog.Debug("refresh failed", "code", cur.Code, "error", err)
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "identify":
			select {
			case c.names <- msg.Name:
			case <-ctx.Done():
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
