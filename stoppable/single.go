////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package stoppable

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Error message.
const closeNotRunningErr = "cannot close single stoppable %q that is %s"

// Single allows stopping a single goroutine using a channel. It adheres to the
// Stoppable interface and doubles as the liveness token for asynchronous work
// started on behalf of the goroutine.
type Single struct {
	name   string
	quit   chan struct{}
	status Status
	once   sync.Once
}

// NewSingle returns a new single Stoppable in the Running state.
func NewSingle(name string) *Single {
	return &Single{
		name:   name,
		quit:   make(chan struct{}),
		status: Running,
	}
}

// Name returns the name of the Single Stoppable.
func (s *Single) Name() string {
	return s.name
}

// GetStatus returns the status of the Stoppable.
func (s *Single) GetStatus() Status {
	return Status(atomic.LoadUint32((*uint32)(&s.status)))
}

// IsRunning returns true if the Stoppable is marked as running. Asynchronous
// completions must check this before applying their results.
func (s *Single) IsRunning() bool {
	return s.GetStatus() == Running
}

// IsStopped returns true if the Stoppable is marked as stopped.
func (s *Single) IsStopped() bool {
	return s.GetStatus() == Stopped
}

// Quit returns a receive-only channel that is closed when the Stoppable quits.
func (s *Single) Quit() <-chan struct{} {
	return s.quit
}

// ToStopped changes the status from stopping to stopped. Panics if the status
// is not already set to stopping. Called by the owning goroutine once it has
// finished winding down.
func (s *Single) ToStopped() {
	if !atomic.CompareAndSwapUint32(
		(*uint32)(&s.status), uint32(Stopping), uint32(Stopped)) {
		jww.FATAL.Panicf("Failed to set the status of single stoppable %q to "+
			"%s when status is %s instead of %s.",
			s.name, Stopped, s.GetStatus(), Stopping)
	}

	jww.DEBUG.Printf(
		"Switched status of single stoppable %q from %s to %s.",
		s.name, Stopping, Stopped)
}

// Close signals the Single to close via the quit channel. Returns an error if
// the Single is not running. Subsequent calls are no-ops.
func (s *Single) Close() error {
	var err error

	s.once.Do(func() {
		if !atomic.CompareAndSwapUint32(
			(*uint32)(&s.status), uint32(Running), uint32(Stopping)) {
			err = errors.Errorf(closeNotRunningErr, s.name, s.GetStatus())
			return
		}

		jww.TRACE.Printf("Closing quit channel of single stoppable %q.", s.name)
		close(s.quit)
	})

	if err != nil {
		jww.ERROR.Print(err.Error())
	}

	return err
}
