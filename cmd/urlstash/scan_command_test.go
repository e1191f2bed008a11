package main

import "testing"

func TestParseReviewInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		action  reviewAction
		sceneID int
		wantErr bool
	}{
		{name: "accept short", input: "a", action: reviewAccept},
		{name: "accept word", input: "accept", action: reviewAccept},
		{name: "accept default", input: "", action: reviewAccept},
		{name: "skip", input: "s", action: reviewSkip},
		{name: "quit", input: "q", action: reviewQuit},
		{name: "all", input: "all", action: reviewAll},
		{name: "none", input: "none", action: reviewNone},
		{name: "toggle scene", input: "42", action: reviewToggle, sceneID: 42},
		{name: "toggle with spaces", input: "  7  ", action: reviewToggle, sceneID: 7},
		{name: "mixed case", input: "ALL", action: reviewAll},
		{name: "garbage", input: "banana", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			action, sceneID, err := parseReviewInput(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReviewInput(%q): %v", tc.input, err)
			}
			if action != tc.action {
				t.Fatalf("expected action %d, got %d", tc.action, action)
			}
			if sceneID != tc.sceneID {
				t.Fatalf("expected scene id %d, got %d", tc.sceneID, sceneID)
			}
		})
	}
}
