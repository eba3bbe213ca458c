package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// StreamConfig holds the live feed and subscription channel settings.
type StreamConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	APIKey string `json:"apiKey" mapstructure:"apiKey"`

	// Live telemetry feed: fixed delay, unbounded retries.
	ReconnectDelay time.Duration `json:"reconnectDelay" mapstructure:"reconnectDelay"`

	// Subscription channel: fixed delay, bounded retries.
	SubscriptionURL            string        `json:"subscriptionUrl" mapstructure:"subscriptionUrl"`
	SubscriptionReconnectDelay time.Duration `json:"subscriptionReconnectDelay" mapstructure:"subscriptionReconnectDelay"`
	SubscriptionMaxAttempts    int           `json:"subscriptionMaxAttempts" mapstructure:"subscriptionMaxAttempts"`

	DialTimeout time.Duration `json:"dialTimeout" mapstructure:"dialTimeout"`
}

// SchedulerConfig holds the consumer refresh pacing knobs.
type SchedulerConfig struct {
	MapBurstSize      int           `json:"mapBurstSize" mapstructure:"mapBurstSize"`
	MapSampleEvery    int           `json:"mapSampleEvery" mapstructure:"mapSampleEvery"`
	SidebarWindow     time.Duration `json:"sidebarWindow" mapstructure:"sidebarWindow"`
	ViewportDebounce  time.Duration `json:"viewportDebounce" mapstructure:"viewportDebounce"`
	SpanChangeMinimum float64       `json:"spanChangeMinimum" mapstructure:"spanChangeMinimum"`
}

// StorageConfig selects the local persistence backend for the tracked
// mirror and vessel notes.
type StorageConfig struct {
	Type       string `json:"type" mapstructure:"type"` // postgres | sqlite | memory
	SqlitePath string `json:"sqlitePath" mapstructure:"sqlitePath"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("statusDir", ".")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("stream.url", "wss://stream.aisstream.io/v0/stream")
	viper.SetDefault("stream.apiKey", "")
	viper.SetDefault("stream.reconnectDelaySeconds", 5)
	viper.SetDefault("stream.subscriptionUrl", "")
	viper.SetDefault("stream.subscriptionReconnectDelaySeconds", 3)
	viper.SetDefault("stream.subscriptionMaxAttempts", 5)
	viper.SetDefault("stream.dialTimeoutSeconds", 10)

	viper.SetDefault("scheduler.mapBurstSize", 20)
	viper.SetDefault("scheduler.mapSampleEvery", 10)
	viper.SetDefault("scheduler.sidebarWindowMillis", 2000)
	viper.SetDefault("scheduler.viewportDebounceMillis", 500)
	viper.SetDefault("scheduler.spanChangeMinimum", 0.2)

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.sqlitePath", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "vessel_tracker")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "vessel-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "vessel_tracker")
	viper.SetDefault("otel.batchTimeoutSeconds", 5)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetConfigName("vessel_tracker.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetStreamConfig returns the stream settings with durations resolved.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		URL:                        viper.GetString("stream.url"),
		APIKey:                     viper.GetString("stream.apiKey"),
		ReconnectDelay:             time.Duration(viper.GetInt("stream.reconnectDelaySeconds")) * time.Second,
		SubscriptionURL:            viper.GetString("stream.subscriptionUrl"),
		SubscriptionReconnectDelay: time.Duration(viper.GetInt("stream.subscriptionReconnectDelaySeconds")) * time.Second,
		SubscriptionMaxAttempts:    viper.GetInt("stream.subscriptionMaxAttempts"),
		DialTimeout:                time.Duration(viper.GetInt("stream.dialTimeoutSeconds")) * time.Second,
	}
}

// GetSchedulerConfig returns the refresh pacing settings.
func GetSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MapBurstSize:      viper.GetInt("scheduler.mapBurstSize"),
		MapSampleEvery:    viper.GetInt("scheduler.mapSampleEvery"),
		SidebarWindow:     time.Duration(viper.GetInt("scheduler.sidebarWindowMillis")) * time.Millisecond,
		ViewportDebounce:  time.Duration(viper.GetInt("scheduler.viewportDebounceMillis")) * time.Millisecond,
		SpanChangeMinimum: viper.GetFloat64("scheduler.spanChangeMinimum"),
	}
}

// GetStorageConfig returns the local persistence settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:       viper.GetString("storage.type"),
		SqlitePath: viper.GetString("storage.sqlitePath"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: time.Duration(viper.GetInt("otel.batchTimeoutSeconds")) * time.Second,
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
