package signing

import (
	"testing"
	"time"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	now := time.Unix(1700000000, 0)
	token := s.Token("sess1", "alice", now.Add(time.Hour))
	if len(token) == 0 {
		t.Fatalf("expected token")
	}
	if err := s.Verify("sess1", "alice", token, now); err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if err := s.Verify("sess2", "alice", token, now); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for wrong session, got %v", err)
	}
	if err := s.Verify("sess1", "bob", token, now); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for wrong user, got %v", err)
	}
	if err := s.Verify("sess1", "alice", "42."+token, now); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for tampered expiry, got %v", err)
	}
	if err := s.Verify("sess1", "alice", "garbage", now); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for malformed input, got %v", err)
	}
	if err := s.Verify("sess1", "alice", token, now.Add(2*time.Hour)); err != ErrExpiredToken {
		t.Fatalf("expected expired token, got %v", err)
	}
	if err := NewSigner([]byte("other")).Verify("sess1", "alice", token, now); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for other secret, got %v", err)
	}
}
