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

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/Yanlry/smartcities-frontend-sub000/event"
	"github.com/Yanlry/smartcities-frontend-sub000/feed"
	"github.com/Yanlry/smartcities-frontend-sub000/stoppable"
)

// Listener owns one live subscription for one user and turns every snapshot
// into a fully enriched, sorted view-model list. Enrichment failures degrade
// individual rows to fallback values; they never remove a conversation.
type Listener struct {
	userID  int64
	source  feed.Feed
	details DetailProvider
	unread  UnreadCounter
	evts    event.Reporter
	params  Params

	state    State
	token    *stoppable.Single
	sub      feed.Subscription
	last     []Conversation
	onUpdate UpdateCallback
	onError  ErrorCallback
	mux      sync.RWMutex
}

// NewListener wires a listener for the given user. Nothing happens until
// Listen is called.
func NewListener(userID int64, source feed.Feed, details DetailProvider,
	unread UnreadCounter, evts event.Reporter, params Params) *Listener {
	return &Listener{
		userID:  userID,
		source:  source,
		details: details,
		unread:  unread,
		evts:    evts,
		params:  params,
		state:   Idle,
	}
}

// Listen establishes exactly one subscription and registers the callbacks.
// It may be called again after a failure or a Stop; each call starts a fresh
// subscription instance with its own liveness token.
func (l *Listener) Listen(onUpdate UpdateCallback, onError ErrorCallback) error {
	l.mux.Lock()
	if l.state == Loading || l.state == Ready {
		l.mux.Unlock()
		return errors.Errorf(
			"listener for user %d is already listening (%s)",
			l.userID, l.state)
	}

	// A failed instance keeps its token and subscription until replaced;
	// retire both so the dead instance can no longer pass the liveness guard
	// or deliver alongside the new one
	oldToken, oldSub := l.token, l.sub
	if oldToken != nil {
		_ = oldToken.Close()
	}

	token := stoppable.NewSingle(
		fmt.Sprintf("ConversationListener(%d)", l.userID))
	l.token = token
	l.sub = nil
	l.state = Loading
	l.onUpdate = onUpdate
	l.onError = onError
	l.mux.Unlock()

	if oldSub != nil {
		oldSub.Unsubscribe()
	}

	jww.INFO.Printf("[CONV] Subscribing to conversation feed for user %d",
		l.userID)

	// The initial snapshot may be delivered synchronously from inside
	// Subscribe, so the callbacks capture the token, not the subscription
	sub, err := l.source.Subscribe(l.userID,
		func(snap feed.Snapshot) { l.handleSnapshot(token, snap) },
		func(err error) { l.handleError(token, err) })
	if err != nil {
		l.mux.Lock()
		l.state = Failed
		l.mux.Unlock()
		return err
	}

	l.mux.Lock()
	l.sub = sub
	l.mux.Unlock()
	return nil
}

// Stop tears the listener down. Any in-flight snapshot or error callback
// holding the old token is discarded once this returns.
func (l *Listener) Stop() {
	l.mux.Lock()
	token, sub := l.token, l.sub
	l.token, l.sub = nil, nil
	l.state = Closed
	// Close under the mutex so the liveness guard in handleSnapshot, which
	// re-checks the token under this same lock, cannot observe Running after
	// the state moved to Closed
	if token != nil {
		_ = token.Close()
	}
	l.mux.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	jww.INFO.Printf("[CONV] Listener for user %d closed", l.userID)
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return l.state
}

// Conversations returns a copy of the last published list. It stays
// available after a subscription failure.
func (l *Listener) Conversations() []Conversation {
	l.mux.RLock()
	defer l.mux.RUnlock()
	out := make([]Conversation, len(l.last))
	copy(out, l.last)
	return out
}

// handleSnapshot assembles and publishes one snapshot. The token is checked
// before the enrichment work starts and again before results are applied, so
// completions that straddle a teardown touch nothing.
func (l *Listener) handleSnapshot(token *stoppable.Single, snap feed.Snapshot) {
	if !token.IsRunning() {
		jww.TRACE.Printf("[CONV] Discarding snapshot %d for user %d: "+
			"listener torn down", snap.Sequence, l.userID)
		return
	}

	l.mux.RLock()
	failed := l.state == Failed
	l.mux.RUnlock()
	if failed {
		// This subscription instance already reported an error
		return
	}

	jww.DEBUG.Printf("[CONV] Processing snapshot %d (%d docs) for user %d",
		snap.Sequence, len(snap.Documents), l.userID)

	list := make([]Conversation, len(snap.Documents))
	runBatches(len(snap.Documents), l.params.EnrichmentBatchSize,
		func(i int) {
			list[i] = l.enrichOne(snap.Documents[i])
		})

	// Sorting happens only after all batches completed, so the order is a
	// pure function of the enriched set
	sortConversations(list)

	l.mux.Lock()
	if !token.IsRunning() {
		l.mux.Unlock()
		jww.TRACE.Printf("[CONV] Discarding enriched snapshot %d for user "+
			"%d: listener torn down mid-assembly", snap.Sequence, l.userID)
		return
	}
	l.last = list
	l.state = Ready
	cb := l.onUpdate
	l.mux.Unlock()

	if cb != nil {
		cb(list)
	}
}

// enrichOne builds the view model for one document. Every lookup failure
// falls back instead of dropping the row.
func (l *Listener) enrichOne(doc feed.Document) Conversation {
	c := Conversation{
		ID:                   doc.ID,
		OtherParticipantName: UnknownUserName,
		LastMessage:          doc.LastMessage,
		LastMessageTimestamp: doc.LastMessageTimestamp,
	}

	other, ok := otherParticipant(doc.Participants, l.userID)
	if !ok {
		l.evts.Report(2, event.CategoryEnrichment, "NoOtherParticipant",
			fmt.Sprintf("conversation %s has no participant besides %d",
				doc.ID, l.userID))
		return c
	}
	c.OtherParticipant = other

	if detail := l.details.Get(other); detail != nil {
		c.OtherParticipantName = detail.Name
		c.ProfilePhoto = detail.ProfilePhoto
	}

	c.UnreadCount = l.unread.CountUnread(l.userID, other)
	return c
}

// handleError moves this subscription instance to Failed without clearing
// the last published list.
func (l *Listener) handleError(token *stoppable.Single, err error) {
	if !token.IsRunning() {
		return
	}

	l.mux.Lock()
	if l.state == Closed {
		l.mux.Unlock()
		return
	}
	l.state = Failed
	cb := l.onError
	l.mux.Unlock()

	jww.WARN.Printf("[CONV] Conversation feed failed for user %d: %+v",
		l.userID, err)
	l.evts.Report(5, event.CategoryFeed, "SubscriptionLost", err.Error())

	if cb != nil {
		cb(err)
	}
}

// otherParticipant returns the participant that is not the viewing user.
func otherParticipant(participants []int64, userID int64) (int64, bool) {
	for _, p := range participants {
		if p != userID {
			return p, true
		}
	}
	return 0, false
}
