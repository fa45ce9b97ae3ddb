////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/Yanlry/smartcities-frontend-sub000/stoppable"
)

const (
	// Time allowed to read the next pong after sending a ping.
	wsPongWait = 60 * time.Second

	// Ping interval. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// Give up dialing after this long.
	wsDialTimeout = 30 * time.Second
)

// WebsocketFeed subscribes to a push server that emits one JSON Snapshot per
// frame, already filtered to the subscribed user. Dialing retries with
// exponential backoff; once established, a broken connection is terminal for
// the subscription and surfaces through the error callback.
type WebsocketFeed struct {
	url string
}

// NewWebsocketFeed creates a feed dialing the given ws/wss endpoint.
func NewWebsocketFeed(url string) *WebsocketFeed {
	return &WebsocketFeed{url: url}
}

// Subscribe dials the feed endpoint for the user and starts the read pump.
func (w *WebsocketFeed) Subscribe(userID int64, cb SnapshotCallback,
	errCb ErrorCallback) (Subscription, error) {
	endpoint := fmt.Sprintf("%s?user=%d", w.url, userID)

	var conn *websocket.Conn
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = wsDialTimeout
	err := backoff.Retry(func() error {
		var dialErr error
		conn, _, dialErr = websocket.DefaultDialer.Dial(endpoint, nil)
		if dialErr != nil {
			jww.WARN.Printf("[FEED] Dial of %s failed, backing off: %+v",
				w.url, dialErr)
		}
		return dialErr
	}, bo)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial feed at %s", w.url)
	}

	sub := &websocketSub{
		conn: conn,
		stop: stoppable.NewSingle(
			fmt.Sprintf("WebsocketFeed(%d)", userID)),
	}

	go sub.readPump(userID, cb, errCb)
	go sub.pingLoop()

	return sub, nil
}

type websocketSub struct {
	conn *websocket.Conn
	stop *stoppable.Single
}

// readPump decodes snapshot frames until the connection breaks or the
// subscription is torn down.
func (s *websocketSub) readPump(userID int64, cb SnapshotCallback,
	errCb ErrorCallback) {
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var snap Snapshot
		if err := s.conn.ReadJSON(&snap); err != nil {
			if s.stop.IsRunning() {
				jww.WARN.Printf("[FEED] Subscription for user %d lost: %+v",
					userID, err)
				errCb(errors.Wrap(err, "conversation feed lost"))
			}
			return
		}

		if !s.stop.IsRunning() {
			return
		}

		// The server filters by participant; drop anything that leaks
		// through anyway
		kept := snap.Documents[:0]
		for _, doc := range snap.Documents {
			if doc.Involves(userID) {
				kept = append(kept, doc)
			}
		}
		snap.Documents = kept

		cb(snap)
	}
}

// pingLoop keeps the connection alive until teardown.
func (s *websocketSub) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop.Quit():
			s.stop.ToStopped()
			return
		case <-ticker.C:
			err := s.conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(10*time.Second))
			if err != nil {
				jww.TRACE.Printf("[FEED] Ping failed: %+v", err)
			}
		}
	}
}

// Unsubscribe stops the pumps and closes the connection, unblocking any
// pending read.
func (s *websocketSub) Unsubscribe() {
	if err := s.stop.Close(); err != nil {
		return
	}
	_ = s.conn.Close()
}
