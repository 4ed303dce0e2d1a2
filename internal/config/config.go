// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Device   DeviceConfig   `mapstructure:"device"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLS             TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AllowsAnyOrigin is true when no origin list is set or it contains "*"
func (s *SecurityConfig) AllowsAnyOrigin() bool {
	for _, o := range s.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return len(s.AllowedOrigins) == 0
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DeviceConfig covers how receipts are paced onto the wire
type DeviceConfig struct {
	DefaultTransport string        `mapstructure:"default_transport"`
	CodePage         string        `mapstructure:"code_page"`
	ChunkSize        int           `mapstructure:"chunk_size"`
	WriteDelay       time.Duration `mapstructure:"write_delay"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	JobTimeout       time.Duration `mapstructure:"job_timeout"`
	Ports            PortsConfig   `mapstructure:"ports"`
}

// PortsConfig holds per-transport settings
type PortsConfig struct {
	Bluetooth BluetoothPortConfig `mapstructure:"bluetooth"`
	Serial    SerialPortConfig    `mapstructure:"serial"`
	TCP       TCPPortConfig       `mapstructure:"tcp"`
	USB       USBPortConfig       `mapstructure:"usb"`
}

// BluetoothPortConfig represents Bluetooth configuration
type BluetoothPortConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	HCIDevice      int           `mapstructure:"hci_device"`
	ScanTimeout    time.Duration `mapstructure:"scan_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	BaudRate int      `mapstructure:"baud_rate"`
	Parity   string   `mapstructure:"parity"`
	Patterns []string `mapstructure:"patterns"`
}

// TCPPortConfig represents network printer configuration
type TCPPortConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	Hosts          []string      `mapstructure:"hosts"`
}

// USBPortConfig represents USB configuration
type USBPortConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// QueueConfig controls the per-printer job queues
type QueueConfig struct {
	Size          int           `mapstructure:"size"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// JobsConfig controls job history retention
type JobsConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrateOnStart bool          `mapstructure:"migrate_on_start"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load reads config.yaml from the usual locations, if present, then applies
// PRINTER_SERVICE_* environment overrides.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/printer-service")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads an explicit config file
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PRINTER_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so env overrides work without a file
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")

	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Device defaults
	v.SetDefault("device.default_transport", "bluetooth")
	v.SetDefault("device.code_page", "")
	v.SetDefault("device.chunk_size", 20)
	v.SetDefault("device.write_delay", "10ms")
	v.SetDefault("device.write_timeout", "5s")
	v.SetDefault("device.job_timeout", "60s")

	v.SetDefault("device.ports.bluetooth.enabled", true)
	v.SetDefault("device.ports.bluetooth.hci_device", 0)
	v.SetDefault("device.ports.bluetooth.scan_timeout", "10s")
	v.SetDefault("device.ports.bluetooth.connect_timeout", "15s")

	v.SetDefault("device.ports.serial.enabled", true)
	v.SetDefault("device.ports.serial.baud_rate", 9600)
	v.SetDefault("device.ports.serial.parity", "none")
	v.SetDefault("device.ports.serial.patterns", []string{"/dev/rfcomm*", "/dev/ttyUSB*", "/dev/ttyACM*", "COM*"})

	v.SetDefault("device.ports.tcp.enabled", true)
	v.SetDefault("device.ports.tcp.connect_timeout", "3s")
	v.SetDefault("device.ports.tcp.keep_alive", "30s")
	v.SetDefault("device.ports.tcp.hosts", []string{})

	v.SetDefault("device.ports.usb.enabled", true)

	// Queue defaults
	v.SetDefault("queue.size", 32)
	v.SetDefault("queue.retry_attempts", 1)
	v.SetDefault("queue.retry_delay", "2s")

	v.SetDefault("jobs.retention", "168h")
	v.SetDefault("jobs.cleanup_interval", "1h")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "printer_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrate_on_start", true)

	// App defaults
	v.SetDefault("app.name", "printer-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Server.TLS.Enabled && (config.Server.TLS.CertFile == "" || config.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls requires cert_file and key_file")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	validTransports := []string{"bluetooth", "serial", "tcp", "usb"}
	if !contains(validTransports, config.Device.DefaultTransport) {
		return fmt.Errorf("device.default_transport must be one of: %v", validTransports)
	}
	if config.Device.ChunkSize <= 0 {
		return fmt.Errorf("device.chunk_size must be positive")
	}
	if config.Device.WriteDelay <= 0 {
		return fmt.Errorf("device.write_delay must be positive; unpaced writes drop bytes")
	}
	if config.Device.WriteTimeout <= 0 {
		return fmt.Errorf("device.write_timeout must be positive")
	}

	if config.Queue.Size <= 0 {
		return fmt.Errorf("queue.size must be positive")
	}
	if config.Queue.RetryAttempts < 0 {
		return fmt.Errorf("queue.retry_attempts must not be negative")
	}

	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when the database is enabled")
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN is the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Redacted returns a copy safe to log, with the database password masked
func (c *Config) Redacted() Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = "***"
	}
	return out
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
