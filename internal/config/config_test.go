package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nadac.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2023, cfg.Report.Year)
	assert.Equal(t, 10, cfg.Report.Count)
	assert.Equal(t, domain.DefaultFieldNames(), cfg.Dataset.FieldNames)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, ',', cfg.Dataset.Comma())
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "file overrides defaults",
			file: `
report:
  year: 2020
  count: 5
server:
  read_timeout: 30s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2020, cfg.Report.Year)
				assert.Equal(t, 5, cfg.Report.Count)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, ":8080", cfg.Server.Addr, "untouched keys keep defaults")
			},
		},
		{
			name: "env overrides file",
			file: `
report:
  year: 2020
`,
			env: map[string]string{
				"NADAC_REPORT_YEAR":         "2021",
				"NADAC_DATASET_FILE":        "data/nadac.csv.xz",
				"NADAC_LOGGING_LEVEL":       "debug",
				"NADAC_DATASET_FIELD_NAMES": "ndc_desc,ndc,old_price,new_price,effective_date",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2021, cfg.Report.Year)
				assert.Equal(t, "data/nadac.csv.xz", cfg.Dataset.Path)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, []string{"ndc_desc", "ndc", "old_price", "new_price", "effective_date"}, cfg.Dataset.FieldNames)
			},
		},
		{
			name:    "unknown key rejected",
			file:    "reprot:\n  year: 2020\n",
			wantErr: true,
		},
		{
			name:    "negative count rejected",
			file:    "report:\n  count: -1\n",
			wantErr: true,
		},
		{
			name:    "invalid log output rejected",
			env:     map[string]string{"NADAC_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "field list without prices rejected",
			env:     map[string]string{"NADAC_DATASET_FIELD_NAMES": "ndc_desc,effective_date"},
			wantErr: true,
		},
		{
			name:    "schedule without outputs rejected",
			env:     map[string]string{"NADAC_SCHEDULE_SPEC": "0 0 6 * * *"},
			wantErr: true,
		},
		{
			name:    "count above server limit rejected",
			file:    "report:\n  count: 50\nserver:\n  max_count: 20\n",
			wantErr: true,
		},
		{
			name:    "bad env value",
			env:     map[string]string{"NADAC_REPORT_COUNT": "ten"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			content := tt.file
			if content == "" {
				content = "{}\n"
			}
			cfg, err := Load(writeConfig(t, content))

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	path := writeConfig(t, "report:\n  year: 2019\n")
	t.Setenv("NADAC_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2019, cfg.Report.Year)
}

func TestDatasetConfig_Comma(t *testing.T) {
	assert.Equal(t, ';', DatasetConfig{Delimiter: ";"}.Comma())
	assert.Equal(t, '\t', DatasetConfig{Delimiter: "\t"}.Comma())
	assert.Equal(t, ',', DatasetConfig{}.Comma())
}
