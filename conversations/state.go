////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

// State tracks one listener subscription through its lifecycle.
type State uint32

const (
	// Idle means no subscription has been established yet.
	Idle State = iota

	// Loading means the subscription exists but no snapshot has landed.
	Loading

	// Ready means at least one snapshot has been published.
	Ready

	// Failed means the subscription reported an error. Terminal for this
	// subscription instance; a fresh Listen starts over at Loading. The last
	// published list stays available.
	Failed

	// Closed means the listener was torn down. Completions that resolve
	// after this point are discarded.
	Closed
)

// String satisfies the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown state"
	}
}
