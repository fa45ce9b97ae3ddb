////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package feed abstracts the live conversation source. The server owns
// conversation documents; subscribers only ever receive ordered snapshots of
// the conversations they participate in.
package feed

import "time"

// Document is one raw conversation record as the server stores it. The
// participant pair is fixed at creation; this engine never writes documents.
type Document struct {
	ID                   string     `json:"id"`
	Participants         []int64    `json:"participants"`
	LastMessage          string     `json:"lastMessage"`
	LastMessageTimestamp *time.Time `json:"lastMessageTimestamp"`
}

// Involves reports whether the given user is one of the two participants.
func (d Document) Involves(userID int64) bool {
	for _, p := range d.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Snapshot is a full result set pushed by the feed at a point in time. The
// sequence number increases per subscription and is used for logging only.
type Snapshot struct {
	Sequence  uint64     `json:"sequence"`
	Documents []Document `json:"documents"`
}

// SnapshotCallback receives every snapshot, initial and incremental. It is
// invoked on the feed's delivery goroutine.
type SnapshotCallback func(snap Snapshot)

// ErrorCallback receives subscription failures. A failure is terminal for the
// subscription that reported it; resubscribing starts a fresh one.
type ErrorCallback func(err error)

// Feed is a live conversation source that can be listened to per user.
type Feed interface {
	// Subscribe establishes one subscription filtered to conversations whose
	// participants contain userID and delivers the initial snapshot.
	Subscribe(userID int64, cb SnapshotCallback, errCb ErrorCallback) (
		Subscription, error)
}

// Subscription handles the lifetime of one Subscribe call.
type Subscription interface {
	// Unsubscribe tears the subscription down. Deliveries racing the
	// teardown may still fire; consumers guard with their liveness token.
	Unsubscribe()
}
