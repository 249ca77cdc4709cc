// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package ib

import "testing"

func testTable() *Table {
	storage := NewMemStorage(32)
	return NewTable(storage, []Attr{
		{ID: 1, Name: "a", Size: 4, Default: []byte{0xAA, 0xBB}},
		{ID: 2, Name: "b", Size: 8, Default: nil},
		{ID: 3, Name: "c", Size: 2, Default: []byte{0x01, 0x02}},
	})
}

func TestTableLayoutIsMonotonic(t *testing.T) {
	tbl := testTable()
	a, _ := tbl.Attr(1)
	b, _ := tbl.Attr(2)
	c, _ := tbl.Attr(3)
	if a.Offset != 0 || b.Offset != 4 || c.Offset != 12 {
		t.Fatalf("unexpected offsets: a=%d b=%d c=%d", a.Offset, b.Offset, c.Offset)
	}
	if tbl.Size() != 14 {
		t.Fatalf("size = %d, want 14", tbl.Size())
	}
}

func TestInitWritesDefaults(t *testing.T) {
	tbl := testTable()
	if err := tbl.Init(); err != nil {
		t.Fatal(err)
	}
	got, err := tbl.GetRaw(1)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xAA, 0xBB, 0x00, 0x00}
	if string(got) != string(want) {
		t.Fatalf("GetRaw(1) = % x, want % x", got, want)
	}
	got, _ = tbl.GetRaw(2)
	if string(got) != string(make([]byte, 8)) {
		t.Fatalf("GetRaw(2) should be zeroed, got % x", got)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	tbl := testTable()
	if err := tbl.Init(); err != nil {
		t.Fatal(err)
	}
	v := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := tbl.SetRaw(2, v); err != nil {
		t.Fatal(err)
	}
	got, err := tbl.GetRaw(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(v) {
		t.Fatalf("GetRaw(2) = % x, want % x", got, v)
	}
}

func TestUnsupportedAttribute(t *testing.T) {
	tbl := testTable()
	if _, err := tbl.GetRaw(99); err == nil {
		t.Fatal("expected error for unsupported attribute")
	}
	if err := tbl.SetRaw(99, []byte{1}); err == nil {
		t.Fatal("expected error for unsupported attribute")
	}
}

func TestValueTooLarge(t *testing.T) {
	tbl := testTable()
	if err := tbl.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tbl.SetRaw(3, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected ErrValueTooLarge")
	}
}
