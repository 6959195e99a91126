package downcmd

import (
	"testing"

	"skiff/config"
)

func TestResolveSite(t *testing.T) {
	tests := []struct {
		name string
		flag string
		s    config.Settings
		want string
	}{
		{"flag wins", "app.example.com", config.Settings{ServerName: "saved.example.com", Host: "203.0.113.7"}, "app.example.com"},
		{"saved config next", "", config.Settings{ServerName: "saved.example.com", Host: "203.0.113.7"}, "saved.example.com"},
		{"host fallback keeps teardown site-aware", "", config.Settings{Host: "203.0.113.7"}, "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSite(tt.flag, &tt.s); got != tt.want {
				t.Errorf("resolveSite(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}
