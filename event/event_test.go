////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package event

import (
	"testing"
	"time"
)

// Reported events reach a registered callback through the event service.
func TestEventReporting(t *testing.T) {
	evts := make(chan reportableEvent, 10)

	myCb := func(priority int, category, evtType, details string) {
		evts <- reportableEvent{
			Priority:  priority,
			Category:  category,
			EventType: evtType,
			Details:   details,
		}
	}

	evtMgr := NewManager()
	stop, err := evtMgr.EventService()
	if err != nil {
		t.Fatalf("EventService returned an error: %+v", err)
	}

	err = evtMgr.RegisterEventCallback("test", myCb)
	if err != nil {
		t.Fatalf("RegisterEventCallback returned an error: %+v", err)
	}

	evtMgr.Report(1, CategoryFeed, "SubscriptionLost", "connection reset")

	select {
	case e := <-evts:
		if e.Priority != 1 || e.Category != CategoryFeed ||
			e.EventType != "SubscriptionLost" {
			t.Errorf("Received unexpected event: %s", e)
		}
	case <-time.After(time.Second):
		t.Error("Timed out waiting for event callback.")
	}

	// A second registration under the same name must be rejected
	if err = evtMgr.RegisterEventCallback("test", myCb); err == nil {
		t.Error("Duplicate RegisterEventCallback did not error.")
	}

	// After unregistering, reports no longer arrive
	evtMgr.UnregisterEventCallback("test")
	evtMgr.Report(2, CategoryEnrichment, "DetailLookupFailed", "user 20")

	select {
	case e := <-evts:
		t.Errorf("Received event after unregister: %s", e)
	case <-time.After(50 * time.Millisecond):
	}

	if err = stop.Close(); err != nil {
		t.Errorf("Failed to stop event service: %+v", err)
	}
}
