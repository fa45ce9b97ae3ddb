////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

import "time"

// Params are the engine tunables.
type Params struct {
	// EnrichmentBatchSize caps how many detail/count fetches run at once
	// while a snapshot is assembled. Batches run sequentially; fetches
	// within a batch run concurrently.
	EnrichmentBatchSize int

	// SaveDebounce is how long archive mutations are coalesced before the
	// set is persisted. The in-memory partition always updates immediately.
	SaveDebounce time.Duration
}

// GetDefaultParams returns the default engine tunables.
func GetDefaultParams() Params {
	return Params{
		EnrichmentBatchSize: 5,
		SaveDebounce:        250 * time.Millisecond,
	}
}
