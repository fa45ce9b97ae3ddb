////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// MemoryFeed is an in-process Feed fed by Upsert calls. It backs the dev
// harness and tests; deliveries run synchronously on the publisher's
// goroutine so test assertions need no synchronization.
type MemoryFeed struct {
	docs   []Document
	subs   map[uint64]*memorySub
	nextID uint64
	mux    sync.Mutex
}

type memorySub struct {
	feed   *MemoryFeed
	id     uint64
	userID int64
	seq    uint64
	cb     SnapshotCallback
	errCb  ErrorCallback
}

// NewMemoryFeed creates an empty in-memory feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		subs: make(map[uint64]*memorySub),
	}
}

// Subscribe registers the subscriber and synchronously delivers the initial
// snapshot of the user's conversations.
func (f *MemoryFeed) Subscribe(userID int64, cb SnapshotCallback,
	errCb ErrorCallback) (Subscription, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	sub := &memorySub{
		feed:   f,
		id:     f.nextID,
		userID: userID,
		cb:     cb,
		errCb:  errCb,
	}
	f.nextID++
	f.subs[sub.id] = sub

	sub.deliver(f.docs)
	return sub, nil
}

// Upsert merges the documents into the feed state by id and pushes a fresh
// snapshot to every subscriber.
func (f *MemoryFeed) Upsert(docs ...Document) {
	f.mux.Lock()
	defer f.mux.Unlock()

	for _, doc := range docs {
		replaced := false
		for i := range f.docs {
			if f.docs[i].ID == doc.ID {
				f.docs[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			f.docs = append(f.docs, doc)
		}
	}

	for _, sub := range f.subs {
		sub.deliver(f.docs)
	}
}

// Fail reports a subscription failure to every subscriber, as a lost
// connection would.
func (f *MemoryFeed) Fail(err error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	for _, sub := range f.subs {
		sub.errCb(err)
	}
}

// deliver pushes the subscriber's filtered view of the current state. Caller
// holds the feed lock.
func (s *memorySub) deliver(docs []Document) {
	filtered := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Involves(s.userID) {
			filtered = append(filtered, doc)
		}
	}

	s.seq++
	jww.TRACE.Printf("[FEED] Delivering snapshot %d (%d docs) to user %d",
		s.seq, len(filtered), s.userID)
	s.cb(Snapshot{Sequence: s.seq, Documents: filtered})
}

// Unsubscribe removes the subscriber from the feed.
func (s *memorySub) Unsubscribe() {
	s.feed.mux.Lock()
	defer s.feed.mux.Unlock()
	delete(s.feed.subs, s.id)
}
