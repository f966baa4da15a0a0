package notify

import "testing"

func TestForEnabled(t *testing.T) {
	if _, ok := ForEnabled(true).(Desktop); !ok {
		t.Fatal("enabled flag should produce the desktop notifier")
	}
	if _, ok := ForEnabled(false).(Noop); !ok {
		t.Fatal("disabled flag should produce the noop notifier")
	}
}

func TestEscapeAppleScript(t *testing.T) {
	got := escapeAppleScript(`say "hi"`)
	if got != `say \"hi\"` {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestNoopSendNeverFails(t *testing.T) {
	if err := (Noop{}).Send(Notification{Title: "x"}); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}
