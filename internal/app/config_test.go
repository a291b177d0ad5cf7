package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		env     map[string]string
		wantDB  string
		wantAdr string
	}{
		{
			name:    "fills database url and port",
			cfg:     Config{Addr: defaultAddr},
			env:     map[string]string{"DATABASE_URL": "postgres://db", "PORT": "9090"},
			wantDB:  "postgres://db",
			wantAdr: "0.0.0.0:9090",
		},
		{
			name:    "explicit settings win",
			cfg:     Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit"},
			env:     map[string]string{"DATABASE_URL": "postgres://db", "PORT": "9090"},
			wantDB:  "postgres://explicit",
			wantAdr: "127.0.0.1:7000",
		},
		{
			name:    "nothing set",
			cfg:     Config{Addr: defaultAddr},
			wantAdr: defaultAddr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.applyPlatformDefaults(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.wantDB, cfg.DatabaseURL)
			assert.Equal(t, tt.wantAdr, cfg.Addr)
		})
	}
}
