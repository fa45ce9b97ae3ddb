////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conversations

import "github.com/Yanlry/smartcities-frontend-sub000/users"

// DetailProvider resolves a participant id to display details. A nil result
// means "unknown user" and is final for this snapshot; implementations must
// not return errors, only nil.
type DetailProvider interface {
	Get(participantID int64) *users.Detail
}

// UnreadCounter is the point query for undelivered-to-reader messages. It
// must never fail upward; implementations return 0 when the count is
// unavailable.
type UnreadCounter interface {
	CountUnread(readerID, otherID int64) int
}

// UpdateCallback publishes a freshly assembled, sorted conversation list.
type UpdateCallback func(list []Conversation)

// PartitionCallback publishes both derived views after a snapshot or an
// archive mutation.
type PartitionCallback func(visible, archived []Conversation)

// ErrorCallback surfaces a subscription failure. The previously published
// list remains valid; the UI shows it with a subdued error indicator.
type ErrorCallback func(err error)

// ConfirmFn gates the archive action. It runs synchronously on the mutating
// goroutine; returning false aborts the archive as a no-op.
type ConfirmFn func(conversationID string) bool
