////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package archive

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/elixxir/ekv"

	"github.com/Yanlry/smartcities-frontend-sub000/storage/versioned"
)

// A saved archive set must load back identically through a fresh Store over
// the same backend, mimicking a process restart.
func TestStore_SaveLoad_Restart(t *testing.T) {
	data := ekv.MakeMemstore()

	st := NewStore("smartcities", versioned.NewKV(data))
	require.NoError(t, st.Save(10, []string{"c2", "c1"}))

	// New store instance over the same underlying storage
	st2 := NewStore("smartcities", versioned.NewKV(data))
	require.Equal(t, []string{"c1", "c2"}, st2.Load(10))
}

// Loading a user with no stored set returns empty without error.
func TestStore_Load_Empty(t *testing.T) {
	st := NewStore("smartcities", versioned.NewKV(ekv.MakeMemstore()))
	require.Empty(t, st.Load(42))
}

// A corrupt stored payload loads as an empty set (fail open).
func TestStore_Load_Corrupt(t *testing.T) {
	data := ekv.MakeMemstore()
	kv := versioned.NewKV(data)
	st := NewStore("smartcities", kv)

	obj := versioned.Object{
		Version: hiddenSetVersion,
		Data:    []byte("not json"),
	}
	require.NoError(t, kv.Set(st.key(10), &obj))

	require.Empty(t, st.Load(10))
}

// Sets are namespaced per user and per prefix.
func TestStore_Namespacing(t *testing.T) {
	data := ekv.MakeMemstore()

	st := NewStore("smartcities", versioned.NewKV(data))
	require.NoError(t, st.Save(10, []string{"c1"}))

	require.Empty(t, st.Load(11), "another user saw the stored set")

	other := NewStore("otherapp", versioned.NewKV(data))
	require.Empty(t, other.Load(10), "another prefix saw the stored set")
}

// A second Save replaces the first (last write wins).
func TestStore_Save_LastWriteWins(t *testing.T) {
	st := NewStore("smartcities", versioned.NewKV(ekv.MakeMemstore()))

	require.NoError(t, st.Save(10, []string{"c1", "c2"}))
	require.NoError(t, st.Save(10, []string{"c3"}))

	require.Equal(t, []string{"c3"}, st.Load(10))
}
