////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package stoppable provides liveness tokens for long-lived goroutines. A
// token is captured when an asynchronous session starts; any completion that
// resolves after the token has been closed must be discarded by its caller.
package stoppable

// Status holds the current state of a Stoppable.
type Status uint32

const (
	Running Status = iota
	Stopping
	Stopped
)

// String prints a string representation of the Status. This functions
// satisfies the fmt.Stringer interface.
func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown status"
	}
}

// Stoppable interface for stopping a goroutine.
type Stoppable interface {
	Name() string
	GetStatus() Status
	IsRunning() bool
	Close() error
}
