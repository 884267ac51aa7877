// Package config loads runtime settings for the Daedalus programs from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/wehubfusion/Daedalus/pkg/iteration"
)

// Source indicates where the concurrency settings came from
type Source string

const (
	SourceEnvVar     Source = "environment_variable"
	SourceAutoDetect Source = "auto_detect"
)

const (
	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultNATSName      = "daedalus"
	DefaultSubject       = "daedalus"
	DefaultQueue         = "daedalus-workers"
	DefaultOTLPEndpoint  = "127.0.0.1:4318"
	DefaultBlobContainer = "daedalus-snapshots"
)

// Config holds the settings shared by the service and its clients
type Config struct {
	NATSURL        string
	NATSName       string
	Subject        string
	Queue          string
	RequestTimeout time.Duration

	IteratorMode  iteration.Strategy
	MaxConcurrent int
	MaxInFlight   int

	// BreakerThreshold consecutive handler failures open the circuit for BreakerResetTimeout
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	LogLevel string

	TracingEnabled bool
	OTLPEndpoint   string
	SampleRatio    float64
	Environment    string

	BlobConnectionString string
	BlobContainer        string

	Source        Source
	IsKubernetes  bool
	EffectiveCPUs int
}

// LoadConfig reads DAEDALUS_* variables with priority env vars > auto-detection > defaults
func LoadConfig() *Config {
	config := &Config{
		NATSURL:        getEnv("DAEDALUS_NATS_URL", DefaultNATSURL),
		NATSName:       getEnv("DAEDALUS_NATS_NAME", DefaultNATSName),
		Subject:        getEnv("DAEDALUS_SUBJECT", DefaultSubject),
		Queue:          getEnv("DAEDALUS_QUEUE", DefaultQueue),
		RequestTimeout: getEnvDuration("DAEDALUS_REQUEST_TIMEOUT", 30*time.Second),

		BreakerThreshold:    getEnvInt("DAEDALUS_BREAKER_THRESHOLD", 100),
		BreakerResetTimeout: getEnvDuration("DAEDALUS_BREAKER_RESET_TIMEOUT", 30*time.Second),

		LogLevel: getEnv("DAEDALUS_LOG_LEVEL", "info"),

		TracingEnabled: getEnvBool("DAEDALUS_TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("DAEDALUS_OTLP_ENDPOINT", DefaultOTLPEndpoint),
		SampleRatio:    getEnvFloat("DAEDALUS_SAMPLE_RATIO", 1.0),
		Environment:    getEnv("DAEDALUS_ENVIRONMENT", "development"),

		BlobConnectionString: getEnv("DAEDALUS_BLOB_CONNECTION_STRING", ""),
		BlobContainer:        getEnv("DAEDALUS_BLOB_CONTAINER", DefaultBlobContainer),

		IsKubernetes:  isKubernetes(),
		EffectiveCPUs: runtime.GOMAXPROCS(0),
	}

	if maxConcurrent := getEnvInt("DAEDALUS_MAX_CONCURRENT", 0); maxConcurrent > 0 {
		config.MaxConcurrent = maxConcurrent
		config.Source = SourceEnvVar
	} else if multiplier := getEnvInt("DAEDALUS_CONCURRENCY_MULTIPLIER", 0); multiplier > 0 {
		config.MaxConcurrent = config.EffectiveCPUs * multiplier
		config.Source = SourceEnvVar
	} else {
		config.MaxConcurrent = defaultMaxConcurrent(config.IsKubernetes, config.EffectiveCPUs)
		config.Source = SourceAutoDetect
	}

	if inFlight := getEnvInt("DAEDALUS_MAX_IN_FLIGHT", 0); inFlight > 0 {
		config.MaxInFlight = inFlight
	} else {
		config.MaxInFlight = defaultMaxInFlight(config.IsKubernetes, config.EffectiveCPUs)
	}

	// Unknown modes fall back to sequential
	config.IteratorMode = iteration.ParseStrategy(getEnv("DAEDALUS_ITERATOR_MODE", string(iteration.StrategySequential)))

	return config
}

// Validate fills zero values with defaults and rejects settings that cannot work
func (c *Config) Validate() error {
	if c.NATSURL == "" {
		c.NATSURL = DefaultNATSURL
	}
	if c.NATSName == "" {
		c.NATSName = DefaultNATSName
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.IteratorMode == "" {
		c.IteratorMode = iteration.StrategySequential
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = 1
	}
	if c.MaxInFlight < 1 {
		c.MaxInFlight = 1
	}
	if c.BreakerThreshold < 1 {
		c.BreakerThreshold = 100
	}
	if c.BreakerResetTimeout <= 0 {
		c.BreakerResetTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = DefaultOTLPEndpoint
	}
	if c.BlobContainer == "" {
		c.BlobContainer = DefaultBlobContainer
	}

	if strings.ContainsAny(c.Subject, " \t*>") {
		return fmt.Errorf("subject %q must be a literal NATS subject", c.Subject)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample ratio must be within [0, 1], got %v", c.SampleRatio)
	}
	return nil
}

// InvokeSubject is the subject invocation requests are sent to
func (c *Config) InvokeSubject() string { return c.Subject + ".invoke" }

// SnapshotSubject is the subject snapshot requests are sent to
func (c *Config) SnapshotSubject() string { return c.Subject + ".snapshot" }

// RestoreSubject is the subject restore requests are sent to
func (c *Config) RestoreSubject() string { return c.Subject + ".restore" }

// ReleaseSubject is the subject handle release requests are sent to
func (c *Config) ReleaseSubject() string { return c.Subject + ".release" }

// String formats the config for logs. The blob connection string is never printed.
func (c *Config) String() string {
	blob := "memory"
	if c.BlobConnectionString != "" {
		blob = "azure:" + c.BlobContainer
	}
	return fmt.Sprintf(
		"Config{NATS: %s, Subject: %s, Queue: %s, IteratorMode: %s, MaxConcurrent: %d, MaxInFlight: %d, Tracing: %t, Blob: %s, IsK8s: %t, CPUs: %d, Source: %s}",
		c.NATSURL,
		c.Subject,
		c.Queue,
		c.IteratorMode,
		c.MaxConcurrent,
		c.MaxInFlight,
		c.TracingEnabled,
		blob,
		c.IsKubernetes,
		c.EffectiveCPUs,
		c.Source,
	)
}

func isKubernetes() bool {
	return os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}

func defaultMaxConcurrent(isK8s bool, cpus int) int {
	if isK8s {
		return cpus * 2
	}
	return cpus * 4
}

func defaultMaxInFlight(isK8s bool, cpus int) int {
	if isK8s {
		return max(cpus, 4)
	}
	return max(cpus*2, 8)
}

func getEnv(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
