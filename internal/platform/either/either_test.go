package either

import (
	"errors"
	"testing"
)

func TestLeftRight(t *testing.T) {
	l := Left[error, int](errors.New("boom"))
	if !l.IsLeft() || l.IsRight() {
		t.Fatalf("Left: IsLeft=%v IsRight=%v", l.IsLeft(), l.IsRight())
	}
	if _, ok := l.Value().(error); !ok {
		t.Errorf("Left Value() = %T, want error", l.Value())
	}
	if l.RightValue() != 0 {
		t.Errorf("Left RightValue() = %d, want zero", l.RightValue())
	}

	r := Right[error](42)
	if !r.IsRight() || r.IsLeft() {
		t.Fatalf("Right: IsLeft=%v IsRight=%v", r.IsLeft(), r.IsRight())
	}
	if v, ok := r.Value().(int); !ok || v != 42 {
		t.Errorf("Right Value() = %v, want 42", r.Value())
	}
	if r.LeftValue() != nil {
		t.Errorf("Right LeftValue() = %v, want nil", r.LeftValue())
	}
}

func TestZeroValueIsLeft(t *testing.T) {
	var e Either[string, int]
	if !e.IsLeft() {
		t.Error("zero Either should be Left")
	}
}

func TestMatch(t *testing.T) {
	onLeft := func(err error) string { return "left:" + err.Error() }
	onRight := func(v int) string { return "right" }

	if got := Match(Left[error, int](errors.New("x")), onLeft, onRight); got != "left:x" {
		t.Errorf("Match(Left) = %q", got)
	}
	if got := Match(Right[error](1), onLeft, onRight); got != "right" {
		t.Errorf("Match(Right) = %q", got)
	}
}

func TestFromResultAndUnwrap(t *testing.T) {
	sentinel := errors.New("failed")

	e := FromResult(0, sentinel)
	if !e.IsLeft() {
		t.Fatal("FromResult with error should be Left")
	}
	if _, err := Unwrap(e); !errors.Is(err, sentinel) {
		t.Errorf("Unwrap err = %v, want %v", err, sentinel)
	}

	e = FromResult(7, nil)
	v, err := Unwrap(e)
	if err != nil || v != 7 {
		t.Errorf("Unwrap = (%d, %v), want (7, nil)", v, err)
	}
}
