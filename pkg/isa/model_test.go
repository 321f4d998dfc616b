package isa

import "testing"

func TestFindComment(t *testing.T) {
	comments := []Comment{
		{Name: "identifier", Value: "first"},
		{Name: "name", Value: "img.tif"},
		{Name: "identifier", Value: "second"},
	}

	got, ok := FindComment(comments, "identifier")
	if !ok || got != "second" {
		t.Errorf("FindComment(identifier) = %q, %v, want last match %q", got, ok, "second")
	}
	if _, ok := FindComment(comments, "missing"); ok {
		t.Error("FindComment(missing) reported a match")
	}
	if _, ok := FindComment(nil, "identifier"); ok {
		t.Error("FindComment on nil comments reported a match")
	}
}
