package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"smartfeeds/internal/config"
)

func TestNewNotifierRejectsMissingSettings(t *testing.T) {
	t.Parallel()

	if _, err := NewNotifier(config.TelegramConfig{}); err == nil {
		t.Fatal("expected error for empty settings")
	}
	if _, err := NewNotifier(config.TelegramConfig{BotToken: "tok", ChatID: "not-a-number"}); err == nil {
		t.Fatal("expected error for malformed chat id")
	}
}

func TestSplitMessageShortTextUnchanged(t *testing.T) {
	t.Parallel()

	chunks := splitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitMessagePrefersNewlineBoundary(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60)
	chunks := splitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Fatalf("first chunk does not end at a newline: %q", chunks[0])
	}
	if got := chunks[0] + chunks[1]; got != text {
		t.Fatal("chunks do not reassemble the original text")
	}
}

func TestSplitMessageHardCutKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("я", 150)
	chunks := splitMessage(text, 101)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if len(c) > 101 {
			t.Fatalf("chunk %d length %d exceeds limit", i, len(c))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not reassemble the original text")
	}
}

func TestSplitMessageHardCutWithoutNewlines(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 250)
	chunks := splitMessage(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk %d length %d exceeds limit", i, len(c))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks do not reassemble the original text")
	}
}
