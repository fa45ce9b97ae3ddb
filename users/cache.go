////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package users

import (
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/netTime"
)

// DefaultDetailTTL bounds how long a cached detail is served before being
// refetched. The source behavior was an unbounded per-session cache; the TTL
// keeps mid-session name and avatar changes from being stale forever. Zero
// restores the unbounded behavior.
const DefaultDetailTTL = 15 * time.Minute

type entry struct {
	detail    *Detail
	fetchedAt time.Time
}

// Cache memoizes participant detail lookups for the lifetime of one listener
// session. Concurrent misses for the same id are not deduplicated; the
// duplicate cost is bounded by the listener's enrichment batch size, and the
// last write wins with identical data.
type Cache struct {
	lookup  Lookup
	ttl     time.Duration
	entries map[int64]entry
	mux     sync.RWMutex
}

// NewCache creates a session-scoped detail cache over the given lookup. A ttl
// of zero disables expiry.
func NewCache(lookup Lookup, ttl time.Duration) *Cache {
	return &Cache{
		lookup:  lookup,
		ttl:     ttl,
		entries: make(map[int64]entry),
	}
}

// Get returns the detail for the participant, fetching on a miss. It never
// returns an error: a failed lookup yields the previously cached value when
// one exists, otherwise nil, and nil always means "unknown user".
func (c *Cache) Get(participantID int64) *Detail {
	c.mux.RLock()
	e, ok := c.entries[participantID]
	c.mux.RUnlock()
	if ok && !c.expired(e) {
		return e.detail
	}

	detail, err := c.lookup.LookupUser(participantID)
	if err != nil {
		jww.WARN.Printf("[UD] Detail lookup failed for participant %d: %+v",
			participantID, err)
		if ok {
			// A stale name beats an unknown user
			return e.detail
		}
		return nil
	}

	c.mux.Lock()
	c.entries[participantID] = entry{detail: detail, fetchedAt: netTime.Now()}
	c.mux.Unlock()

	return detail
}

// Len returns the number of cached participants.
func (c *Cache) Len() int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e entry) bool {
	return c.ttl != 0 && netTime.Now().Sub(e.fetchedAt) > c.ttl
}
