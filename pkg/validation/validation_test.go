package validation

import (
	"strings"
	"testing"
)

func TestValidateStreamerLogin(t *testing.T) {
	tests := []struct {
		name    string
		login   string
		wantErr bool
	}{
		{"valid login", "ninja", false},
		{"valid with digits", "user123", false},
		{"valid with underscore", "some_streamer", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 26), true},
		{"invalid chars", "some streamer", true},
		{"invalid chars 2", "user@name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStreamerLogin(tt.login)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStreamerLogin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConnectionHandle(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{"valid uuid", "8f14e45f-ceea-467f-a0f9-d9b1f3c1d8aa", false},
		{"valid opaque", "conn_01HXYZ", false},
		{"empty", "", true},
		{"too long", strings.Repeat("x", 129), true},
		{"invalid chars", "conn id", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConnectionHandle(tt.handle)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConnectionHandle() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessageText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"valid text", "PogChamp what a play", false},
		{"empty", "", true},
		{"whitespace only", "  \t ", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessageText() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://localhost:8082", false},
		{"valid https", "https://gateway.example.com", false},
		{"valid ws", "ws://localhost:8080/ws", false},
		{"empty", "", true},
		{"bad scheme", "ftp://example.com", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
