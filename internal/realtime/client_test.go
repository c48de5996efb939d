package realtime

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateChat(t *testing.T) {
	t.Run("short message unchanged", func(t *testing.T) {
		if got := truncateChat("hello"); got != "hello" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("long ascii cut at limit", func(t *testing.T) {
		got := truncateChat(strings.Repeat("a", maxChatLength+40))
		if len(got) != maxChatLength {
			t.Errorf("length = %d, want %d", len(got), maxChatLength)
		}
	})

	t.Run("multi-byte rune never split", func(t *testing.T) {
		// Three-byte runes do not divide the byte limit evenly, so a byte
		// slice at the limit would land mid-rune.
		got := truncateChat(strings.Repeat("日", maxChatLength))
		if len(got) > maxChatLength {
			t.Errorf("length = %d, want at most %d", len(got), maxChatLength)
		}
		if !utf8.ValidString(got) {
			t.Error("truncated message is not valid UTF-8")
		}
		if len(got) != maxChatLength-maxChatLength%3 {
			t.Errorf("length = %d, want cut on a rune boundary at %d", len(got), maxChatLength-maxChatLength%3)
		}
	})
}
