package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"exit code 0 no message", cli.Exit("", 0), 0, ""},
		{"decode failure", cli.Exit("2 frame(s) failed to decode", 1), 1, "2 frame(s) failed to decode"},
		{"config error", cli.Exit("unknown adapter.type \"kafka\"", 2), 2, "unknown adapter.type \"kafka\""},
		{"silent code", cli.Exit("", 1), 1, ""},
		{"wrapped exit coder", fmt.Errorf("stream: %w", cli.Exit("inner error", 42)), 42, "inner error"},
		{"joined exit coder", errors.Join(errors.New("context"), cli.Exit("inner error", 42)), 42, "inner error"},
		{"regular error", errors.New("regular error"), 1, "Error: regular error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitStatus(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
