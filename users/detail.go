////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package users resolves participant ids to the small enrichment record shown
// next to a conversation: a display name and an avatar url.
package users

import "strings"

// Detail is the enrichment record for one participant. A nil *Detail means
// "unknown user"; callers substitute their own fallback and must not retry.
type Detail struct {
	Name         string
	ProfilePhoto string
}

// record is the shape of the user lookup response relevant to display-name
// derivation.
type record struct {
	Username    string
	FirstName   string
	LastName    string
	UseFullName bool
	PhotoURL    string
}

// deriveDetail applies the display-name rule: a record flagged useFullName
// renders "firstName lastName", degrading to whichever half is present;
// otherwise the username is used; a record with neither yields no detail at
// all.
func deriveDetail(r record) *Detail {
	name := strings.TrimSpace(r.Username)
	if r.UseFullName {
		name = strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " +
			strings.TrimSpace(r.LastName))
	}
	if name == "" {
		return nil
	}

	return &Detail{
		Name:         name,
		ProfilePhoto: r.PhotoURL,
	}
}
