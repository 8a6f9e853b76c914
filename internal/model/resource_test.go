package model

import (
	"net/http"
	"testing"
)

// TestResourceHashBody tests content hashing.
func TestResourceHashBody(t *testing.T) {
	t.Parallel()

	t.Run("computes deterministic hash", func(t *testing.T) {
		t.Parallel()

		a := &Resource{URL: "http://example.com/"}
		b := &Resource{URL: "http://example.com/copy"}

		a.HashBody([]byte("same content"))
		b.HashBody([]byte("same content"))

		if a.Hash == "" {
			t.Fatal("hash should not be empty")
		}
		if a.Hash != b.Hash {
			t.Errorf("identical bodies should hash identically: %q != %q", a.Hash, b.Hash)
		}
	})

	t.Run("different content yields different hash", func(t *testing.T) {
		t.Parallel()

		a := &Resource{}
		b := &Resource{}

		a.HashBody([]byte("content a"))
		b.HashBody([]byte("content b"))

		if a.Hash == b.Hash {
			t.Error("different bodies should not collide")
		}
	})
}

// TestNewCandidate tests candidate constructors.
func TestNewCandidate(t *testing.T) {
	t.Parallel()

	t.Run("plain candidate defaults to GET", func(t *testing.T) {
		t.Parallel()

		c := NewCandidate("http://example.com/a", "html")
		if c.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", c.Method)
		}
		if c.Source != "html" {
			t.Errorf("Source = %q, want html", c.Source)
		}
	})

	t.Run("form candidate keeps method and fields", func(t *testing.T) {
		t.Parallel()

		form := map[string]string{"q": "test"}
		c := NewFormCandidate("http://example.com/search", http.MethodPost, "html", form)
		if c.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", c.Method)
		}
		if c.Form["q"] != "test" {
			t.Errorf("Form[q] = %q, want test", c.Form["q"])
		}
	})

	t.Run("empty method defaults to GET", func(t *testing.T) {
		t.Parallel()

		c := NewFormCandidate("http://example.com/", "", "html", nil)
		if c.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", c.Method)
		}
	})
}

// TestIdentityIsZero tests the zero-identity check.
func TestIdentityIsZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity Identity
		want     bool
	}{
		{name: "empty", identity: Identity{}, want: true},
		{name: "context only", identity: Identity{ContextID: "ctx-1"}, want: false},
		{name: "user only", identity: Identity{UserID: "user-1"}, want: false},
		{name: "both", identity: Identity{ContextID: "ctx-1", UserID: "user-1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.identity.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}
