package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("Correct-Horse-9")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "Correct-Horse-9" {
		t.Fatalf("Hash returned %q", hash)
	}
	ok, err := h.Compare("Correct-Horse-9", hash)
	if err != nil || !ok {
		t.Fatalf("Compare = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, _ := h.Hash("Correct-Horse-9")
	ok, err := h.Compare("wrong", hash)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatal("Compare with wrong password should be false")
	}
}

func TestHasher_CompareMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	ok, err := h.Compare("anything", "not-a-bcrypt-hash")
	if err == nil || ok {
		t.Fatalf("Compare malformed = (%v, %v), want (false, error)", ok, err)
	}
}

func TestHasher_CompareIsDeterministic(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, _ := h.Hash("Correct-Horse-9")
	for i := 0; i < 3; i++ {
		if ok, _ := h.Compare("Correct-Horse-9", hash); !ok {
			t.Fatalf("attempt %d: Compare = false", i)
		}
	}
}

func TestHasher_Cost(t *testing.T) {
	testCases := []struct {
		in, want int
	}{
		{12, 12},
		{0, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{99, bcrypt.MaxCost},
	}
	for _, tc := range testCases {
		if got := NewHasher(tc.in).Cost; got != tc.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.in, got, tc.want)
		}
	}
}
