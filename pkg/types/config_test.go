package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "zero config is valid",
			config:  Config{},
			wantErr: nil,
		},
		{
			name:    "explicit auto",
			config:  Config{FoldCase: FoldAuto},
			wantErr: nil,
		},
		{
			name:    "off with zed settings",
			config:  Config{FoldCase: FoldOff, ZedEnabled: true, ZedDBDir: "/tmp/zed/db"},
			wantErr: nil,
		},
		{
			name:    "unknown fold mode returns ErrFoldCaseUnknown",
			config:  Config{FoldCase: "sometimes"},
			wantErr: ErrFoldCaseUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
