package commands

import (
	"path/filepath"
	"testing"
	"time"

	"BizCard/internal/config"
)

// withTempConfig возвращает конфиг, у которого все артефакты (база, слоты) создаются в temp.
func withTempConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:         dir,
		MetadataBackend: config.BackendSQLite,
		ImageBackend:    config.BackendSQLite,
		ImageDSN:        filepath.Join(dir, "images.db"),
		BackupDebounce:  time.Hour,
		BackupMaxAge:    24 * time.Hour,
		TimeZone:        "UTC",
		ServerURL:       "http://127.0.0.1:1",
	}
}
