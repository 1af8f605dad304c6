package types

import (
	"reflect"
	"testing"
)

func TestTagSetUnion(t *testing.T) {
	inline := NewTagSet("Drama")
	detail := NewTagSet("Drama", "VR", "Solo")

	inline.Union(detail)

	if inline.Len() != 3 {
		t.Fatalf("expected 3 tags, got %d", inline.Len())
	}
	want := []string{"Drama", "Solo", "VR"}
	if got := inline.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTagSetCaseSensitiveAndBlank(t *testing.T) {
	s := NewTagSet("vr", "VR", "  ", "")
	if s.Len() != 2 {
		t.Errorf("expected 2 tags, got %v", s.Sorted())
	}
	if !s.Has("vr") || !s.Has("VR") {
		t.Error("tags should be case-sensitive")
	}
}

func TestTitleSet(t *testing.T) {
	s := NewTitleSet("b", "a", "b", "")
	if s.Len() != 2 {
		t.Fatalf("expected 2 titles, got %d", s.Len())
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("unexpected order: %v", got)
	}

	c := s.Clone()
	c.Add("c")
	if s.Has("c") {
		t.Error("clone should not share storage")
	}
	if s.Equal(c) {
		t.Error("sets with different sizes should differ")
	}
}

func TestRecordClone(t *testing.T) {
	r := NewRecord("ABC-123 Foo", "https://example.com/v/1")
	r.Tags.Add("Drama")

	c := r.Clone()
	c.Tags.Add("VR")
	c.Rating = "4.5"

	if r.Tags.Has("VR") || r.HasRating() {
		t.Error("clone mutated original record")
	}
	if r.Title() != "ABC-123 Foo" {
		t.Errorf("unexpected title %q", r.Title())
	}
}

func TestResultReasons(t *testing.T) {
	ok := Found("7.8")
	if !ok.OK() || ok.Value != "7.8" {
		t.Errorf("unexpected found result: %+v", ok)
	}

	miss := Missing[string](ReasonParseMiss, nil)
	if miss.OK() || miss.Failed() {
		t.Error("parse miss is absent, not failed")
	}

	fail := Missing[string](ReasonNetworkError, ErrEmptyResponse)
	if !fail.Failed() {
		t.Error("network error should report Failed")
	}
}
