////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package event

import "github.com/Yanlry/smartcities-frontend-sub000/stoppable"

// Event categories reported by the conversation engine. None of them are
// fatal; the UI may surface them as a subdued indicator.
const (
	CategoryFeed       = "Feed"
	CategoryEnrichment = "Enrichment"
	CategoryArchive    = "Archive"
)

// Callback defines the callback function for engine event reports.
type Callback func(priority int, category, evtType, details string)

// Reporter is the reporting api used internally by the engine.
type Reporter interface {
	Report(priority int, category, evtType, details string)
}

// Manager is the full event management api exposed to the presentation layer.
type Manager interface {
	Reporter

	// RegisterEventCallback records the given function to receive event
	// reports under the given name.
	RegisterEventCallback(name string, myFunc Callback) error

	// UnregisterEventCallback deletes the callback identified by name.
	UnregisterEventCallback(name string)

	// EventService starts the report dispatch thread and returns its
	// stoppable.
	EventService() (stoppable.Stoppable, error)
}
