////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package archive persists the set of conversation ids a user has chosen to
// hide. Membership is the only state; ids may refer to conversations that no
// longer exist in the live feed and simply never surface.
package archive

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/xx_network/primitives/netTime"

	"github.com/Yanlry/smartcities-frontend-sub000/storage/versioned"
)

const (
	hiddenKeyFormat  = "%s_hidden_%d"
	hiddenSetVersion = 0
)

// Store persists one archive set per viewing user under a namespaced key.
type Store struct {
	prefix string
	kv     *versioned.KV
}

// NewStore creates a Store on top of the given KV. The prefix namespaces the
// hosting application (several apps may share one local store).
func NewStore(prefix string, kv *versioned.KV) *Store {
	return &Store{
		prefix: prefix,
		kv:     kv,
	}
}

// Load returns the archived conversation ids for the given user. Failures
// load as an empty set so nothing gets hidden by a broken store.
func (s *Store) Load(userID int64) []string {
	obj, err := s.kv.Get(s.key(userID), hiddenSetVersion)
	if err != nil {
		if s.kv.Exists(err) {
			jww.WARN.Printf("[ARCH] Failed to load archive set for user "+
				"%d, treating as empty: %+v", userID, err)
		}
		return nil
	}

	var ids []string
	if err = json.Unmarshal(obj.Data, &ids); err != nil {
		jww.WARN.Printf("[ARCH] Corrupt archive set for user %d, treating "+
			"as empty: %+v", userID, err)
		return nil
	}

	return ids
}

// Save writes the archived conversation ids for the given user, replacing
// whatever was stored before (last write wins). The ids are stored sorted so
// saves are deterministic.
func (s *Store) Save(userID int64, ids []string) error {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	data, err := json.Marshal(sorted)
	if err != nil {
		return errors.Wrapf(err,
			"failed to marshal archive set for user %d", userID)
	}

	obj := versioned.Object{
		Version:   hiddenSetVersion,
		Timestamp: netTime.Now(),
		Data:      data,
	}

	if err = s.kv.Set(s.key(userID), &obj); err != nil {
		return errors.Wrapf(err,
			"failed to store archive set for user %d", userID)
	}

	jww.DEBUG.Printf("[ARCH] Stored %d archived conversation(s) for user %d",
		len(sorted), userID)
	return nil
}

func (s *Store) key(userID int64) string {
	return fmt.Sprintf(hiddenKeyFormat, s.prefix, userID)
}
