////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package event

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/Yanlry/smartcities-frontend-sub000/stoppable"
)

// reportableEvent is a single non-fatal occurrence surfaced to api users.
type reportableEvent struct {
	Priority  int
	Category  string
	EventType string
	Details   string
}

// String satisfies the fmt.Stringer interface.
func (e reportableEvent) String() string {
	return fmt.Sprintf("Event(%d, %s, %s, %s)", e.Priority, e.Category,
		e.EventType, e.Details)
}

// eventManager holds state for the event reporting system.
type eventManager struct {
	eventCh  chan reportableEvent
	eventCbs sync.Map
}

// NewManager creates a Manager with a buffered report queue.
func NewManager() Manager {
	return &eventManager{
		eventCh: make(chan reportableEvent, 1000),
	}
}

// Report reports an event from the engine to api users, providing a priority,
// category, eventType, and details. Reports are dropped, with a log line,
// when the queue is full.
func (e *eventManager) Report(priority int, category, evtType, details string) {
	re := reportableEvent{
		Priority:  priority,
		Category:  category,
		EventType: evtType,
		Details:   details,
	}
	select {
	case e.eventCh <- re:
		jww.TRACE.Printf("Event reported: %s", re)
	default:
		jww.ERROR.Printf("Event queue full, unable to report: %s", re)
	}
}

// RegisterEventCallback records the given function to receive event reports.
// The name doubles as the handle for unregistering.
func (e *eventManager) RegisterEventCallback(name string, myFunc Callback) error {
	_, existsAlready := e.eventCbs.LoadOrStore(name, myFunc)
	if existsAlready {
		return errors.Errorf("Key %s already exists as event callback", name)
	}
	return nil
}

// UnregisterEventCallback deletes the callback identified by name.
func (e *eventManager) UnregisterEventCallback(name string) {
	e.eventCbs.Delete(name)
}

// EventService starts the dispatch thread.
func (e *eventManager) EventService() (stoppable.Stoppable, error) {
	stop := stoppable.NewSingle("EventReporting")
	go e.reportEventsHandler(stop)
	return stop, nil
}

// reportEventsHandler dispatches queued events to every registered callback.
func (e *eventManager) reportEventsHandler(stop *stoppable.Single) {
	jww.DEBUG.Print("reportEventsHandler routine started")
	for {
		select {
		case <-stop.Quit():
			jww.DEBUG.Print("Stopping reportEventsHandler")
			stop.ToStopped()
			return
		case evt := <-e.eventCh:
			jww.TRACE.Printf("Received event: %s", evt)
			// Callbacks run on the dispatch thread; it is the users
			// responsibility to return promptly.
			e.eventCbs.Range(func(name, myFunc interface{}) bool {
				f := myFunc.(Callback)
				f(evt.Priority, evt.Category, evt.EventType, evt.Details)
				return true
			})
		}
	}
}
