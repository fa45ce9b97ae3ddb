////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package versioned

import (
	"bytes"
	"testing"
	"time"

	"gitlab.com/elixxir/ekv"
)

// KV Get should return a previously Set object unchanged.
func TestKV_Get_Set(t *testing.T) {
	kv := NewKV(ekv.MakeMemstore())

	original := Object{
		Version:   0,
		Timestamp: time.Now(),
		Data:      []byte("original"),
	}

	if err := kv.Set("test", &original); err != nil {
		t.Fatalf("Failed to set object: %+v", err)
	}

	result, err := kv.Get("test", 0)
	if err != nil {
		t.Fatalf("Failed to get object: %+v", err)
	}

	if !bytes.Equal(result.Data, original.Data) {
		t.Errorf("Got wrong data.\nexpected: %q\nreceived: %q",
			original.Data, result.Data)
	}
}

// Get on a missing key must produce an error that Exists reports as absence.
func TestKV_Get_Missing(t *testing.T) {
	kv := NewKV(ekv.MakeMemstore())

	_, err := kv.Get("nothing here", 0)
	if err == nil {
		t.Fatal("Get on missing key did not error.")
	}
	if kv.Exists(err) {
		t.Errorf("Exists reported true for a missing key error: %+v", err)
	}
}

// Prefixed KVs must address disjoint keyspaces over the same backend.
func TestKV_Prefix(t *testing.T) {
	kv := NewKV(ekv.MakeMemstore())
	a := kv.Prefix("a")
	b := kv.Prefix("a").Prefix("b")

	obj := Object{Version: 0, Timestamp: time.Now(), Data: []byte("data")}
	if err := a.Set("key", &obj); err != nil {
		t.Fatalf("Failed to set object: %+v", err)
	}

	if _, err := b.Get("key", 0); err == nil {
		t.Error("Nested prefix read an object stored under the outer prefix.")
	}

	expected := "a" + PrefixSeparator + "b" + PrefixSeparator + "key_0"
	if b.GetFullKey("key", 0) != expected {
		t.Errorf("Incorrect full key.\nexpected: %s\nreceived: %s",
			expected, b.GetFullKey("key", 0))
	}
}

// Delete removes the object so a following Get fails.
func TestKV_Delete(t *testing.T) {
	kv := NewKV(ekv.MakeMemstore())

	obj := Object{Version: 0, Timestamp: time.Now(), Data: []byte("data")}
	if err := kv.Set("key", &obj); err != nil {
		t.Fatalf("Failed to set object: %+v", err)
	}

	if err := kv.Delete("key", 0); err != nil {
		t.Fatalf("Failed to delete object: %+v", err)
	}

	if _, err := kv.Get("key", 0); err == nil {
		t.Error("Get succeeded on a deleted key.")
	}
}
