////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-collections/collections/set"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/Yanlry/smartcities-frontend-sub000/event"
	"github.com/Yanlry/smartcities-frontend-sub000/stoppable"
	"github.com/Yanlry/smartcities-frontend-sub000/storage/archive"
)

// stopFlushTimeout bounds how long Stop waits for the pending archive write.
const stopFlushTimeout = time.Second

// Aggregator overlays the persisted archive set on the listener's output and
// keeps the two derived views consistent: visible = all − archiveSet,
// archived = all ∩ archiveSet. Mutations update the in-memory partition
// synchronously; persistence is debounced behind a single writer goroutine.
type Aggregator struct {
	userID   int64
	listener *Listener
	store    *archive.Store
	confirm  ConfirmFn
	evts     event.Reporter
	params   Params

	all      []Conversation
	hidden   *set.Set
	onUpdate PartitionCallback
	onError  ErrorCallback
	mux      sync.Mutex

	dirty  chan struct{}
	writer *stoppable.Single
}

// NewAggregator loads the user's archive set (fail open: a broken store
// hides nothing) and wraps the given listener.
func NewAggregator(userID int64, listener *Listener, store *archive.Store,
	confirm ConfirmFn, evts event.Reporter, params Params) *Aggregator {
	hidden := set.New()
	for _, id := range store.Load(userID) {
		hidden.Insert(id)
	}
	jww.INFO.Printf("[ARCH] Loaded %d archived conversation(s) for user %d",
		hidden.Len(), userID)

	return &Aggregator{
		userID:   userID,
		listener: listener,
		store:    store,
		confirm:  confirm,
		evts:     evts,
		params:   params,
		hidden:   hidden,
		dirty:    make(chan struct{}, 1),
	}
}

// Start begins listening and starts the archive writer. The partition
// callback fires on every snapshot and on every archive mutation.
func (a *Aggregator) Start(onUpdate PartitionCallback,
	onError ErrorCallback) error {
	writer := stoppable.NewSingle(
		fmt.Sprintf("ArchiveWriter(%d)", a.userID))

	a.mux.Lock()
	a.onUpdate = onUpdate
	a.onError = onError
	a.writer = writer
	a.mux.Unlock()

	go a.saveThread(writer)

	return a.listener.Listen(a.handleList, a.handleErr)
}

// Stop flushes any pending archive write and tears the listener down.
func (a *Aggregator) Stop() {
	a.mux.Lock()
	writer := a.writer
	a.writer = nil
	a.mux.Unlock()

	if writer != nil {
		_ = writer.Close()
		deadline := time.Now().Add(stopFlushTimeout)
		for !writer.IsStopped() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}

	a.listener.Stop()
}

// Archive hides a conversation. The confirmation gate runs first; once
// confirmed, the partition updates before the debounced write lands, so the
// UI reflects the change immediately. Archiving an id absent from the feed
// is a no-op that still persists: if the conversation reappears it surfaces
// directly in the archived view.
func (a *Aggregator) Archive(conversationID string) bool {
	if a.confirm != nil && !a.confirm(conversationID) {
		jww.DEBUG.Printf("[ARCH] Archive of %s declined by user %d",
			conversationID, a.userID)
		return false
	}

	a.mux.Lock()
	a.hidden.Insert(conversationID)
	visible, archived := a.partition()
	cb := a.onUpdate
	a.mux.Unlock()

	jww.INFO.Printf("[ARCH] User %d archived conversation %s",
		a.userID, conversationID)
	a.requestSave()

	if cb != nil {
		cb(visible, archived)
	}
	return true
}

// Recover unhides a conversation. No confirmation: recovery is invertible
// and already deliberate.
func (a *Aggregator) Recover(conversationID string) {
	a.mux.Lock()
	a.hidden.Remove(conversationID)
	visible, archived := a.partition()
	cb := a.onUpdate
	a.mux.Unlock()

	jww.INFO.Printf("[ARCH] User %d recovered conversation %s",
		a.userID, conversationID)
	a.requestSave()

	if cb != nil {
		cb(visible, archived)
	}
}

// Visible returns the conversations not in the archive set.
func (a *Aggregator) Visible() []Conversation {
	a.mux.Lock()
	defer a.mux.Unlock()
	visible, _ := a.partition()
	return visible
}

// Archived returns the conversations in the archive set.
func (a *Aggregator) Archived() []Conversation {
	a.mux.Lock()
	defer a.mux.Unlock()
	_, archived := a.partition()
	return archived
}

// handleList receives each freshly published list from the listener.
func (a *Aggregator) handleList(list []Conversation) {
	a.mux.Lock()
	a.all = list
	visible, archived := a.partition()
	cb := a.onUpdate
	a.mux.Unlock()

	if cb != nil {
		cb(visible, archived)
	}
}

// handleErr forwards subscription failures; the last partitions remain
// served.
func (a *Aggregator) handleErr(err error) {
	a.mux.Lock()
	cb := a.onError
	a.mux.Unlock()

	if cb != nil {
		cb(err)
	}
}

// partition splits the current list along the archive set, preserving sort
// order in both halves. Caller holds the lock.
func (a *Aggregator) partition() (visible, archived []Conversation) {
	visible = make([]Conversation, 0, len(a.all))
	archived = make([]Conversation, 0)
	for _, c := range a.all {
		if a.hidden.Has(c.ID) {
			archived = append(archived, c)
		} else {
			visible = append(visible, c)
		}
	}
	return visible, archived
}

// requestSave marks the archive set dirty. Signals coalesce in the buffered
// channel; the writer persists the freshest state after the debounce window.
func (a *Aggregator) requestSave() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// saveThread debounces archive writes. On teardown it flushes whatever is
// still pending before stopping.
func (a *Aggregator) saveThread(stop *stoppable.Single) {
	jww.DEBUG.Printf("[ARCH] Archive writer for user %d started", a.userID)
	for {
		select {
		case <-stop.Quit():
			select {
			case <-a.dirty:
				a.persist()
			default:
			}
			stop.ToStopped()
			return
		case <-a.dirty:
			timer := time.NewTimer(a.params.SaveDebounce)
			select {
			case <-stop.Quit():
				timer.Stop()
				a.persist()
				stop.ToStopped()
				return
			case <-timer.C:
				a.persist()
			}
		}
	}
}

// persist writes the current archive set. A failed save leaves the in-memory
// state authoritative and is reported, never surfaced as a toggle failure.
func (a *Aggregator) persist() {
	a.mux.Lock()
	ids := make([]string, 0, a.hidden.Len())
	a.hidden.Do(func(item interface{}) {
		ids = append(ids, item.(string))
	})
	a.mux.Unlock()

	if err := a.store.Save(a.userID, ids); err != nil {
		jww.WARN.Printf("[ARCH] Failed to persist archive set for user %d, "+
			"state left unsaved: %+v", a.userID, err)
		a.evts.Report(3, event.CategoryArchive, "SaveFailed", err.Error())
	}
}
