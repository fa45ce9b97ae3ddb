////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func doc(id string, a, b int64, msg string, ts *time.Time) Document {
	return Document{
		ID:                   id,
		Participants:         []int64{a, b},
		LastMessage:          msg,
		LastMessageTimestamp: ts,
	}
}

// Subscribers get an initial snapshot and one snapshot per Upsert, filtered
// to their own conversations.
func TestMemoryFeed_Subscribe_Filtering(t *testing.T) {
	f := NewMemoryFeed()
	f.Upsert(doc("c1", 10, 20, "salut", nil), doc("c2", 30, 40, "hey", nil))

	var snaps []Snapshot
	sub, err := f.Subscribe(10, func(s Snapshot) {
		snaps = append(snaps, s)
	}, func(error) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Len(t, snaps, 1, "no initial snapshot")
	require.Len(t, snaps[0].Documents, 1)
	require.Equal(t, "c1", snaps[0].Documents[0].ID)

	f.Upsert(doc("c3", 20, 10, "re", nil))
	require.Len(t, snaps, 2)
	require.Len(t, snaps[1].Documents, 2)
}

// An Upsert of an existing id replaces the document instead of duplicating.
func TestMemoryFeed_Upsert_Replaces(t *testing.T) {
	f := NewMemoryFeed()

	var last Snapshot
	sub, err := f.Subscribe(10,
		func(s Snapshot) { last = s }, func(error) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	f.Upsert(doc("c1", 10, 20, "salut", nil))
	f.Upsert(doc("c1", 10, 20, "rebonjour", nil))

	require.Len(t, last.Documents, 1)
	require.Equal(t, "rebonjour", last.Documents[0].LastMessage)
	require.Equal(t, uint64(3), last.Sequence)
}

// Fail reaches the error callback; an unsubscribed subscriber hears nothing.
func TestMemoryFeed_Fail_And_Unsubscribe(t *testing.T) {
	f := NewMemoryFeed()

	var errCount, snapCount int
	sub, err := f.Subscribe(10,
		func(Snapshot) { snapCount++ }, func(error) { errCount++ })
	require.NoError(t, err)

	f.Fail(errors.New("connection reset"))
	require.Equal(t, 1, errCount)

	sub.Unsubscribe()
	f.Upsert(doc("c1", 10, 20, "salut", nil))
	f.Fail(errors.New("again"))

	require.Equal(t, 1, snapCount, "snapshot delivered after unsubscribe")
	require.Equal(t, 1, errCount, "error delivered after unsubscribe")
}
