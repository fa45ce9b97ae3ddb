////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package conversations merges the live conversation feed with participant
// details, unread counts, and the locally persisted archive overlay, and
// exposes the two presentational views the messaging screen renders.
package conversations

import (
	"sort"
	"time"
)

// UnknownUserName is the display fallback when a participant cannot be
// resolved. The hosting app ships in French.
const UnknownUserName = "Utilisateur inconnu"

// Conversation is the fully enriched view model for one conversation row.
// Identity and message fields come from the feed document; the rest is
// derived at snapshot time and never stored on the server record.
type Conversation struct {
	ID                   string
	OtherParticipant     int64
	OtherParticipantName string
	ProfilePhoto         string
	LastMessage          string
	LastMessageTimestamp *time.Time
	UnreadCount          int
}

// sortConversations orders by last message time, newest first, with untimed
// conversations after all timed ones. The sort is stable so ties and untimed
// records keep their snapshot order, making the result independent of
// enrichment resolution order.
func sortConversations(list []Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].LastMessageTimestamp, list[j].LastMessageTimestamp
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
}
