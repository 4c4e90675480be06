package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		wantErr           bool
		wantErrorContains []string
		want              *Config
	}{
		{
			name: "valid config file with custom values",
			configContent: `collection:
  path: custom/collection.db
  media_directory: custom/media
sync:
  server_mode: true
`,
			want: &Config{
				Collection: CollectionConfig{
					Path:           "custom/collection.db",
					MediaDirectory: "custom/media",
				},
				Sync: SyncConfig{
					ServerMode: true,
				},
			},
		},
		{
			name:          "defaults fill missing values",
			configContent: "collection:\n  path: custom/collection.db\n",
			want: &Config{
				Collection: CollectionConfig{
					Path:           "custom/collection.db",
					MediaDirectory: filepath.Join("kartei", "media"),
				},
			},
		},
		{
			name: "invalid YAML format",
			configContent: `collection:
  invalid yaml format here [[[
`,
			wantErr: true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
			},
		},
		{
			name:          "missing collection path fails validation",
			configContent: "collection:\n  path: \"\"\n",
			wantErr:       true,
			wantErrorContains: []string{
				"invalid configuration",
				"path",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tt.configContent), 0644))

			got, err := Load(cfgPath)
			if tt.wantErr {
				require.Error(t, err)
				for _, want := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), want)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
