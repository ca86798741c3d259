package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	GRPC         GRPCConfig
	Worker       WorkerConfig
	Poller       PollerConfig
	Platform     PlatformConfig
	Location     LocationConfig
	Dispatch     DispatchConfig
	UI           UIConfig
	Connectivity ConnectivityConfig
	DB           DatabaseConfig
	Logging      LoggingConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type PollerConfig struct {
	Enabled     bool
	Interval    time.Duration
	Probability float64
	FeedURL     string // when set, alerts come from this feed instead of the random stub
}

// PlatformConfig selects where permission and position answers come from.
// "page" waits for the hosting page to post them; "static" answers from the
// fields below.
type PlatformConfig struct {
	Mode                  string
	NotificationsGranted  bool
	Latitude              float64
	Longitude             float64
	Accuracy              float64
	LocationKnown         bool
	LocationFailure       string // denied, unavailable or timeout
	PermissionWaitTimeout time.Duration
}

type LocationConfig struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

type DispatchConfig struct {
	URL               string
	APIKey            string
	Timeout           time.Duration
	RetryMax          int
	SimulatedLatency  time.Duration
	ServiceWorkerPath string
}

type UIConfig struct {
	BannerTTL time.Duration
	CueTTL    time.Duration
}

type ConnectivityConfig struct {
	ProbeURL      string
	ProbeInterval time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 1),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Poller: PollerConfig{
			Enabled:     getEnvBool("POLLER_ENABLED", true),
			Interval:    getEnvDuration("POLL_INTERVAL", 30*time.Second),
			Probability: getEnvFloat("ALERT_PROBABILITY", 0.01),
			FeedURL:     getEnv("ALERT_FEED_URL", ""),
		},
		Platform: PlatformConfig{
			Mode:                  getEnv("PLATFORM_MODE", "page"),
			NotificationsGranted:  getEnvBool("NOTIFICATIONS_GRANTED", false),
			Latitude:              getEnvFloat("STATIC_LATITUDE", 0),
			Longitude:             getEnvFloat("STATIC_LONGITUDE", 0),
			Accuracy:              getEnvFloat("STATIC_ACCURACY", 0),
			LocationKnown:         getEnvBool("STATIC_LOCATION_KNOWN", false),
			LocationFailure:       getEnv("STATIC_LOCATION_FAILURE", ""),
			PermissionWaitTimeout: getEnvDuration("PERMISSION_WAIT_TIMEOUT", 2*time.Minute),
		},
		Location: LocationConfig{
			HighAccuracy: getEnvBool("LOCATION_HIGH_ACCURACY", true),
			Timeout:      getEnvDuration("LOCATION_TIMEOUT", 10*time.Second),
			MaximumAge:   getEnvDuration("LOCATION_MAX_AGE", 5*time.Minute),
		},
		Dispatch: DispatchConfig{
			URL:               getEnv("DISPATCH_URL", "http://localhost:5000"),
			APIKey:            getEnv("DISPATCH_API_KEY", ""),
			Timeout:           getEnvDuration("DISPATCH_TIMEOUT", 5*time.Second),
			RetryMax:          getEnvInt("DISPATCH_RETRY_MAX", 3),
			SimulatedLatency:  getEnvDuration("DISPATCH_SIMULATED_LATENCY", 2*time.Second),
			ServiceWorkerPath: getEnv("SERVICE_WORKER_PATH", "/static/js/sw.js"),
		},
		UI: UIConfig{
			BannerTTL: getEnvDuration("BANNER_TTL", 10*time.Second),
			CueTTL:    getEnvDuration("CPR_CUE_TTL", 3*time.Second),
		},
		Connectivity: ConnectivityConfig{
			ProbeURL:      getEnv("CONNECTIVITY_PROBE_URL", ""),
			ProbeInterval: getEnvDuration("CONNECTIVITY_PROBE_INTERVAL", 30*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/emergency-reports.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Poller.Interval < time.Second {
		return fmt.Errorf("poll interval must be at least 1 second")
	}
	if c.Poller.Probability < 0 || c.Poller.Probability > 1 {
		return fmt.Errorf("alert probability must be within [0, 1]: %v", c.Poller.Probability)
	}

	switch c.Platform.Mode {
	case "page", "static":
	default:
		return fmt.Errorf("invalid platform mode: %s", c.Platform.Mode)
	}
	switch c.Platform.LocationFailure {
	case "", "denied", "unavailable", "timeout":
	default:
		return fmt.Errorf("invalid static location failure: %s", c.Platform.LocationFailure)
	}

	if c.Location.Timeout <= 0 {
		return fmt.Errorf("location timeout must be positive")
	}
	if c.Dispatch.SimulatedLatency < 0 {
		return fmt.Errorf("simulated dispatch latency must not be negative")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
