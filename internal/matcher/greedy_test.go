package matcher

import "testing"

func TestGreedyFindsExactDuplicate(t *testing.T) {
	input := []byte("hellohello")
	g := NewGreedy()
	g.Reset(input)

	var offset, length int
	for pos := 0; pos+4 <= len(input); pos++ {
		if o, l := g.FindMatch(pos); l >= 4 {
			offset, length = o, l
			break
		}
	}

	if offset != 5 {
		t.Fatalf("offset = %d, want 5", offset)
	}
	if length < 5 {
		t.Fatalf("length = %d, want >= 5", length)
	}
}

func TestGreedyNoMatchOnFirstOccurrence(t *testing.T) {
	g := NewGreedy()
	g.Reset([]byte("abcdefgh"))

	if _, length := g.FindMatch(0); length != 0 {
		t.Fatalf("length = %d, want 0 on first occurrence", length)
	}
}

func TestGreedyRejectsOutOfWindowOffsets(t *testing.T) {
	const distance = 70000 // beyond format.MaxOffset (65535)

	input := make([]byte, distance+4)
	copy(input, []byte{1, 2, 3, 4})
	copy(input[distance:], []byte{1, 2, 3, 4})

	g := NewGreedy()
	g.Reset(input)
	g.Insert(0)

	if _, length := g.FindMatch(distance); length != 0 {
		t.Fatalf("length = %d, want 0 for a candidate beyond MaxOffset", length)
	}
}
