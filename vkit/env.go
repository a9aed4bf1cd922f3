package vkit

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must
// implement. Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	healthPath() string
	logLevel() zapcore.Level
	otelExporter() string
	strictHeaders() bool
}

// BaseEnvironment contains the required service environment variables.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port        int           `env:"VH_PORT,required"`
	ServiceName string        `env:"VH_SERVICE_NAME,required"`
	HealthPath  string        `env:"VH_HEALTH_PATH" envDefault:"/healthz"`
	LogLevel    zapcore.Level `env:"VH_LOG_LEVEL" envDefault:"info"`
	// OtelExporter selects the span exporter, currently only "stdout".
	OtelExporter string `env:"VH_OTEL_EXPORTER" envDefault:"stdout"`
	// StrictHeaders makes every connection reject uppercase response
	// header names instead of silently lowercasing them.
	StrictHeaders bool `env:"VH_STRICT_HEADERS" envDefault:"false"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) strictHeaders() bool {
	return e.StrictHeaders
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
