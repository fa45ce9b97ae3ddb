////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/elixxir/ekv"

	"github.com/Yanlry/smartcities-frontend-sub000/event"
	"github.com/Yanlry/smartcities-frontend-sub000/feed"
	"github.com/Yanlry/smartcities-frontend-sub000/storage/archive"
	"github.com/Yanlry/smartcities-frontend-sub000/storage/versioned"
	"github.com/Yanlry/smartcities-frontend-sub000/users"
)

func confirmAlways(string) bool { return true }

// newTestAggregator builds a running aggregator over a memory feed and a
// Memstore-backed archive store. The debounce is shortened so tests can wait
// for persistence.
func newTestAggregator(t *testing.T, f *feed.MemoryFeed,
	data ekv.KeyValue, confirm ConfirmFn) *Aggregator {
	params := GetDefaultParams()
	params.SaveDebounce = 5 * time.Millisecond

	l := NewListener(10, f,
		&fakeDetails{m: map[int64]*users.Detail{20: {Name: "Alice"}}},
		&fakeCounter{counts: map[int64]int{}},
		event.NewManager(), params)

	st := archive.NewStore("smartcities", versioned.NewKV(data))
	a := NewAggregator(10, l, st, confirm, event.NewManager(), params)
	require.NoError(t, a.Start(nil, nil))
	t.Cleanup(a.Stop)
	return a
}

// requirePartitionInvariant asserts the two views are disjoint and cover the
// full list.
func requirePartitionInvariant(t *testing.T, a *Aggregator, total int) {
	visible, archived := a.Visible(), a.Archived()
	require.Equal(t, total, len(visible)+len(archived))

	seen := make(map[string]bool)
	for _, c := range append(visible, archived...) {
		require.Falsef(t, seen[c.ID], "conversation %s in both views", c.ID)
		seen[c.ID] = true
	}
}

// Archive moves a conversation between the views immediately and survives a
// restart through the persisted set.
func TestAggregator_Archive_RoundTrip(t *testing.T) {
	f := feed.NewMemoryFeed()
	f.Upsert(
		feedDoc("c1", 10, 20, "hi", tsPtr(time.Now())),
		feedDoc("c2", 10, 30, "yo", nil),
	)

	data := ekv.MakeMemstore()
	a := newTestAggregator(t, f, data, confirmAlways)

	require.Len(t, a.Visible(), 2)
	require.Empty(t, a.Archived())

	require.True(t, a.Archive("c1"))
	require.Len(t, a.Visible(), 1)
	require.Len(t, a.Archived(), 1)
	require.Equal(t, "c1", a.Archived()[0].ID)
	requirePartitionInvariant(t, a, 2)

	// Stop flushes the debounced write; a fresh aggregator over the same
	// backend mimics a process restart
	a.Stop()

	a2 := newTestAggregator(t, f, data, confirmAlways)
	require.Len(t, a2.Archived(), 1)
	require.Equal(t, "c1", a2.Archived()[0].ID)

	// Recovery inverts the partition
	a2.Recover("c1")
	require.Len(t, a2.Visible(), 2)
	require.Empty(t, a2.Archived())
	requirePartitionInvariant(t, a2, 2)
}

// A declined confirmation leaves everything untouched.
func TestAggregator_Archive_Declined(t *testing.T) {
	f := feed.NewMemoryFeed()
	f.Upsert(feedDoc("c1", 10, 20, "hi", nil))

	a := newTestAggregator(t, f, ekv.MakeMemstore(),
		func(string) bool { return false })

	require.False(t, a.Archive("c1"))
	require.Len(t, a.Visible(), 1)
	require.Empty(t, a.Archived())
}

// Archiving an id that is not in the feed persists, and the conversation
// lands directly in archived when it later appears (tombstone tolerance).
func TestAggregator_Archive_Tombstone(t *testing.T) {
	f := feed.NewMemoryFeed()
	a := newTestAggregator(t, f, ekv.MakeMemstore(), confirmAlways)

	require.True(t, a.Archive("c_missing"))
	require.Empty(t, a.Visible())
	require.Empty(t, a.Archived())

	f.Upsert(feedDoc("c_missing", 10, 20, "back", nil))

	require.Empty(t, a.Visible())
	require.Len(t, a.Archived(), 1)
	require.Equal(t, "c_missing", a.Archived()[0].ID)
}

// Partition updates land through the callback on snapshots and on
// mutations.
func TestAggregator_PartitionCallback(t *testing.T) {
	f := feed.NewMemoryFeed()

	params := GetDefaultParams()
	params.SaveDebounce = 5 * time.Millisecond

	l := NewListener(10, f,
		&fakeDetails{m: map[int64]*users.Detail{}},
		&fakeCounter{counts: map[int64]int{}},
		event.NewManager(), params)
	st := archive.NewStore("smartcities",
		versioned.NewKV(ekv.MakeMemstore()))
	a := NewAggregator(10, l, st, confirmAlways, event.NewManager(), params)

	type part struct{ visible, archived int }
	var calls []part
	require.NoError(t, a.Start(func(v, ar []Conversation) {
		calls = append(calls, part{len(v), len(ar)})
	}, nil))
	defer a.Stop()

	// Initial empty snapshot
	require.Equal(t, []part{{0, 0}}, calls)

	f.Upsert(feedDoc("c1", 10, 20, "hi", nil))
	require.Equal(t, part{1, 0}, calls[len(calls)-1])

	a.Archive("c1")
	require.Equal(t, part{0, 1}, calls[len(calls)-1])
}

// Start followed by an immediate Stop leaves the writer goroutine nothing
// torn to read, however the scheduler interleaves them.
func TestAggregator_StartStop_Immediate(t *testing.T) {
	f := feed.NewMemoryFeed()
	data := ekv.MakeMemstore()

	params := GetDefaultParams()
	params.SaveDebounce = time.Millisecond

	for i := 0; i < 50; i++ {
		l := NewListener(10, f,
			&fakeDetails{m: map[int64]*users.Detail{}},
			&fakeCounter{counts: map[int64]int{}},
			event.NewManager(), params)
		st := archive.NewStore("smartcities", versioned.NewKV(data))
		a := NewAggregator(10, l, st, confirmAlways, event.NewManager(),
			params)

		require.NoError(t, a.Start(nil, nil))
		a.Stop()
	}
}

// The archive set persists on debounce without an explicit Stop.
func TestAggregator_DebouncedSave(t *testing.T) {
	f := feed.NewMemoryFeed()
	data := ekv.MakeMemstore()
	a := newTestAggregator(t, f, data, confirmAlways)

	require.True(t, a.Archive("c1"))

	st := archive.NewStore("smartcities", versioned.NewKV(data))
	deadline := time.Now().Add(time.Second)
	for len(st.Load(10)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Archive set never persisted.")
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, []string{"c1"}, st.Load(10))
}
