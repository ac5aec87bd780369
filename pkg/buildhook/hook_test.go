package buildhook

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCommandHookInvoke(t *testing.T) {
	hook := NewCommandHook("echo", []string{"build"})

	var stdout, stderr bytes.Buffer
	err := hook.Invoke(context.Background(), t.TempDir(), "baserock/builds/aaaa/bbbb", "system.morph", nil, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	got := stdout.String()
	for _, want := range []string{"build", "baserock/builds/aaaa/bbbb", "system.morph"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected stdout to contain %q, got %q", want, got)
		}
	}
}

func TestCommandHookInvokeFailure(t *testing.T) {
	hook := NewCommandHook("false", nil)

	var stdout, stderr bytes.Buffer
	err := hook.Invoke(context.Background(), t.TempDir(), "build-ref", "system.morph", nil, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected an error from a failing command")
	}
}

func TestNewCommandHookDefaultsCommand(t *testing.T) {
	hook := NewCommandHook("", nil)
	if hook.Command != DefaultCommand {
		t.Errorf("got command %q, want %q", hook.Command, DefaultCommand)
	}
}

func TestNoopHookInvoke(t *testing.T) {
	var hook NoopHook
	if err := hook.Invoke(context.Background(), "/tmp", "ref", "system.morph", nil, nil, nil); err != nil {
		t.Errorf("NoopHook.Invoke: %v", err)
	}
}
