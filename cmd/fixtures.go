////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/xx_network/primitives/netTime"

	"github.com/Yanlry/smartcities-frontend-sub000/feed"
	"github.com/Yanlry/smartcities-frontend-sub000/messages"
	"github.com/Yanlry/smartcities-frontend-sub000/users"
)

// fixtureLookup serves a static set of participants so the harness works
// without a backend.
type fixtureLookup struct {
	details map[int64]*users.Detail
}

func (f *fixtureLookup) LookupUser(participantID int64) (*users.Detail, error) {
	return f.details[participantID], nil
}

// detailLookup picks the REST client when an api is configured and the
// fixtures otherwise.
func detailLookup() users.Lookup {
	if api := viper.GetString("api"); api != "" {
		return users.NewRESTLookup(api, viper.GetInt("apiRate"))
	}
	return &fixtureLookup{details: map[int64]*users.Detail{
		20: {Name: "Alice Martin", ProfilePhoto: "https://cdn/im/20.jpg"},
		30: {Name: "Bruno"},
		40: {Name: "Chloé Dubois"},
	}}
}

// seedFixtures loads the feed and message store with a small conversation
// graph around the harness user.
func seedFixtures(f *feed.MemoryFeed, store *messages.Store, userID int64) {
	now := netTime.Now()
	earlier := now.Add(-2 * time.Hour)

	f.Upsert(
		feed.Document{
			ID:                   "conv-alice",
			Participants:         []int64{userID, 20},
			LastMessage:          "On se voit demain ?",
			LastMessageTimestamp: &now,
		},
		feed.Document{
			ID:                   "conv-bruno",
			Participants:         []int64{userID, 30},
			LastMessage:          "Merci pour le signalement",
			LastMessageTimestamp: &earlier,
		},
		feed.Document{
			ID:           "conv-chloe",
			Participants: []int64{userID, 40},
			LastMessage:  "",
		},
	)

	seedMsg := func(sender int64, body string, read bool) {
		if err := store.Insert(sender, userID, body, read); err != nil {
			jww.WARN.Printf("Failed to seed message: %+v", err)
		}
	}
	seedMsg(20, "Salut !", true)
	seedMsg(20, "On se voit demain ?", false)
	seedMsg(30, "Merci pour le signalement", false)
	seedMsg(30, "C'est corrigé", false)
}
