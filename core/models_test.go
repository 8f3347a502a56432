package core

import "testing"

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("I love hiking")
	b := IDFromContent("I love hiking")
	if a != b {
		t.Fatalf("Expected identical IDs for identical content, got %d and %d", a, b)
	}

	c := IDFromContent("I love hiking too")
	if a == c {
		t.Fatal("Expected different IDs for different content")
	}
}

func TestDuplicateID(t *testing.T) {
	// Same (author, content) pair collides
	if DuplicateID("alice", "I love hiking") != DuplicateID("alice", "I love hiking") {
		t.Fatal("Expected identical duplicate IDs for identical pairs")
	}

	// Same content under a different author does not
	if DuplicateID("alice", "I love hiking") == DuplicateID("bob", "I love hiking") {
		t.Fatal("Expected different duplicate IDs for different authors")
	}

	// The separator keeps (author, content) boundaries unambiguous
	if DuplicateID("ab", "c") == DuplicateID("a", "bc") {
		t.Fatal("Expected boundary-shifted pairs to produce different IDs")
	}
}
