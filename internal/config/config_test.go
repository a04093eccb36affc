package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "streamflow-requests", cfg.KafkaSourceTopic)
	assert.Equal(t, "streamflow-comparisons", cfg.KafkaSinkTopic)
	assert.Equal(t, "streamflow-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "https://waterservices.usgs.gov/nwis/dv/", cfg.USGSBaseURL)
	assert.Equal(t, 10*time.Second, cfg.USGSTimeout)
	assert.Equal(t, 256, cfg.USGSCacheSize)
	assert.Equal(t, 10, cfg.HistoryYears)
	assert.Equal(t, "0 14 * * *", cfg.ScheduleCron)
	assert.Empty(t, cfg.ScheduleGauges)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("USGS_BASE_URL", "http://localhost:8081/nwis/dv")
	t.Setenv("USGS_TIMEOUT", "3s")
	t.Setenv("USGS_CACHE_SIZE", "32")
	t.Setenv("HISTORY_YEARS", "20")
	t.Setenv("SCHEDULE_CRON", "*/30 * * * *")
	t.Setenv("SCHEDULE_GAUGES", "12510500, 14105700,,12510500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "http://localhost:8081/nwis/dv/", cfg.USGSBaseURL)
	assert.Equal(t, 3*time.Second, cfg.USGSTimeout)
	assert.Equal(t, 32, cfg.USGSCacheSize)
	assert.Equal(t, 20, cfg.HistoryYears)
	assert.Equal(t, "*/30 * * * *", cfg.ScheduleCron)
	assert.Equal(t, []string{"12510500", "14105700"}, cfg.ScheduleGauges)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidUSGSTimeout(t *testing.T) {
	for _, v := range []string{"bad", "0s", "-5s"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("USGS_TIMEOUT", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "USGS_TIMEOUT")
		})
	}
}

func TestLoad_InvalidPositiveInts(t *testing.T) {
	for _, key := range []string{"USGS_CACHE_SIZE", "HISTORY_YEARS"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "-1")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_GaugesWithoutCron(t *testing.T) {
	t.Setenv("SCHEDULE_GAUGES", "12510500")
	t.Setenv("SCHEDULE_CRON", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDULE_CRON")
}
