package logging

import (
	"testing"

	"github.com/school-system/schoolfees/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantErr bool
	}{
		{"JSON Info", config.LogConfig{Level: "info", Format: "json"}, false},
		{"Console Debug", config.LogConfig{Level: "DEBUG", Format: "console"}, false},
		{"Unknown Level", config.LogConfig{Level: "loud", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for level %q", tt.cfg.Level)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("Expected logger, got nil")
			}
		})
	}
}
