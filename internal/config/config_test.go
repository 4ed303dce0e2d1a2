package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Server.Port)
	assert.Equal(t, "bluetooth", cfg.Device.DefaultTransport)
	assert.Equal(t, 20, cfg.Device.ChunkSize)
	assert.Equal(t, 10*time.Millisecond, cfg.Device.WriteDelay)
	assert.Equal(t, 5*time.Second, cfg.Device.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Device.Ports.Bluetooth.ScanTimeout)
	assert.Contains(t, cfg.Device.Ports.Serial.Patterns, "/dev/rfcomm*")
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Security.AllowedOrigins)
	assert.True(t, cfg.Security.AllowsAnyOrigin())
	assert.Equal(t, "0.0.0.0:8085", cfg.GetServerAddr())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRINTER_SERVICE_DEVICE_CHUNK_SIZE", "180")
	t.Setenv("PRINTER_SERVICE_DEVICE_DEFAULT_TRANSPORT", "tcp")
	t.Setenv("PRINTER_SERVICE_QUEUE_RETRY_DELAY", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.Device.ChunkSize)
	assert.Equal(t, "tcp", cfg.Device.DefaultTransport)
	assert.Equal(t, 750*time.Millisecond, cfg.Queue.RetryDelay)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
device:
  code_page: cp437
  ports:
    tcp:
      hosts: ["192.168.1.50", "192.168.1.51:9100"]
database:
  enabled: true
  dbname: receipts
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "cp437", cfg.Device.CodePage)
	assert.Equal(t, []string{"192.168.1.50", "192.168.1.51:9100"}, cfg.Device.Ports.TCP.Hosts)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=receipts sslmode=disable", cfg.GetDatabaseDSN())
}

func TestValidate(t *testing.T) {
	t.Setenv("PRINTER_SERVICE_DEVICE_DEFAULT_TRANSPORT", "nfc")
	_, err := Load()
	assert.ErrorContains(t, err, "device.default_transport")
}

func TestValidateRejectsUnpacedWrites(t *testing.T) {
	t.Setenv("PRINTER_SERVICE_DEVICE_WRITE_DELAY", "0s")
	_, err := Load()
	assert.ErrorContains(t, err, "device.write_delay")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAllowsAnyOrigin(t *testing.T) {
	assert.True(t, (&SecurityConfig{}).AllowsAnyOrigin())
	assert.True(t, (&SecurityConfig{AllowedOrigins: []string{"https://a.example", "*"}}).AllowsAnyOrigin())
	assert.False(t, (&SecurityConfig{AllowedOrigins: []string{"https://a.example"}}).AllowsAnyOrigin())
}

func TestRedactedMasksDatabasePassword(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{User: "printer", Password: "s3cret"}}

	red := cfg.Redacted()
	assert.Equal(t, "***", red.Database.Password)
	assert.Equal(t, "printer", red.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.NotContains(t, red.Database.DSN(), "s3cret")

	assert.Empty(t, (&Config{}).Redacted().Database.Password)
}
