package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// USGS Water Services configuration.
	USGSBaseURL   string
	USGSTimeout   time.Duration
	USGSCacheSize int
	HistoryYears  int

	// Scheduled analysis requests.
	ScheduleCron   string
	ScheduleGauges []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	usgsTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("USGS_TIMEOUT", "10s"))
	if err != nil || usgsTimeout <= 0 {
		return nil, errors.New("invalid USGS_TIMEOUT")
	}

	usgsCacheSize, err := parsePositiveInt("USGS_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	historyYears, err := parsePositiveInt("HISTORY_YEARS", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "streamflow-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "streamflow-comparisons"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "streamflow-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		USGSBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis/dv/"), "/") + "/",
		USGSTimeout:   usgsTimeout,
		USGSCacheSize: usgsCacheSize,
		HistoryYears:  historyYears,

		ScheduleCron:   scheduleCron(),
		ScheduleGauges: parseList(os.Getenv("SCHEDULE_GAUGES")),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if len(cfg.ScheduleGauges) > 0 && cfg.ScheduleCron == "" {
		return nil, errors.New("SCHEDULE_CRON is required when SCHEDULE_GAUGES is set")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

// scheduleCron returns SCHEDULE_CRON, defaulting only when the variable is unset
// so that an explicitly blank schedule is rejected rather than replaced.
func scheduleCron() string {
	if v, ok := os.LookupEnv("SCHEDULE_CRON"); ok {
		return strings.TrimSpace(v)
	}
	return "0 14 * * *"
}

// parseList splits a comma-separated value, dropping blanks and duplicates.
func parseList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
