package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/logger"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Main.Log = logger.LoggingConfig{DefaultLevel: "info"}
	s.Output.SQLite.Path = DefaultDatabasePath
	s.Import.Extensions = []string{".fits"}
	return s
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{
			name:    "empty database path",
			mutate:  func(s *Settings) { s.Output.SQLite.Path = " " },
			wantErr: "output.sqlite.path",
		},
		{
			name:    "extension without dot",
			mutate:  func(s *Settings) { s.Import.Extensions = []string{"fits"} },
			wantErr: "must start with a dot",
		},
		{
			name:    "no extensions",
			mutate:  func(s *Settings) { s.Import.Extensions = nil },
			wantErr: "at least one extension",
		},
		{
			name: "latitude out of range",
			mutate: func(s *Settings) {
				s.Observatory = ObservatorySettings{Enabled: true, Latitude: 91}
			},
			wantErr: "observatory.latitude",
		},
		{
			name: "latitude ignored when disabled",
			mutate: func(s *Settings) {
				s.Observatory = ObservatorySettings{Latitude: 91}
			},
		},
		{
			name:    "bad module level",
			mutate:  func(s *Settings) { s.Main.Log.ModuleLevels = map[string]string{"datastore": "loud"} },
			wantErr: "main.log.module_levels.datastore",
		},
		{
			name:    "metrics without textfile",
			mutate:  func(s *Settings) { s.Metrics.Enabled = true },
			wantErr: "metrics.textfile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
