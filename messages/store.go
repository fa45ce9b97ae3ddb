////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package messages owns the local message documents used by the conversation
// engine. The engine only ever counts and marks them; writing new messages is
// the chat screen's business and goes through Insert.
package messages

import (
	clover "github.com/ostafen/clover"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

const collectionName = "messages"

// Document fields. The engine reads receiverId, senderId and isRead; body and
// timestamps ride along for the chat screen.
const (
	fieldSender   = "senderId"
	fieldReceiver = "receiverId"
	fieldIsRead   = "isRead"
	fieldBody     = "body"
)

// Store queries the message collection. It satisfies the conversation
// engine's unread counting and centralizes mark-as-read so no other call site
// grows divergent read-state logic.
type Store struct {
	db *clover.DB
}

// NewStore ensures the message collection exists on the given database.
func NewStore(db *clover.DB) (*Store, error) {
	has, err := db.HasCollection(collectionName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check message collection")
	}
	if !has {
		if err = db.CreateCollection(collectionName); err != nil {
			return nil, errors.Wrap(err,
				"failed to create message collection")
		}
	}
	return &Store{db: db}, nil
}

// CountUnread returns the number of messages sent by the other participant to
// the reader that the reader has not read. It never fails upward: a broken
// query counts as zero, which undercounts rather than blocking the list.
func (s *Store) CountUnread(readerID, otherID int64) int {
	n, err := s.db.Query(collectionName).
		Where(unreadCriteria(readerID, otherID)).
		Count()
	if err != nil {
		jww.WARN.Printf("[MSG] Unread count query failed for reader %d / "+
			"sender %d, returning 0: %+v", readerID, otherID, err)
		return 0
	}
	return n
}

// MarkConversationRead marks every unread message from the other participant
// to the reader as read. The next snapshot recomputation observes the change.
func (s *Store) MarkConversationRead(readerID, otherID int64) error {
	err := s.db.Query(collectionName).
		Where(unreadCriteria(readerID, otherID)).
		Update(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return errors.Wrapf(err, "failed to mark conversation read for "+
			"reader %d / sender %d", readerID, otherID)
	}
	return nil
}

// Insert stores one message document.
func (s *Store) Insert(senderID, receiverID int64, body string, read bool) error {
	doc := clover.NewDocument()
	doc.Set(fieldSender, senderID)
	doc.Set(fieldReceiver, receiverID)
	doc.Set(fieldBody, body)
	doc.Set(fieldIsRead, read)

	if _, err := s.db.InsertOne(collectionName, doc); err != nil {
		return errors.Wrap(err, "failed to insert message")
	}
	return nil
}

func unreadCriteria(readerID, otherID int64) *clover.Criteria {
	return clover.Field(fieldReceiver).Eq(readerID).
		And(clover.Field(fieldSender).Eq(otherID)).
		And(clover.Field(fieldIsRead).Eq(false))
}
