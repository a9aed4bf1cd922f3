package vkittest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [vkit.BaseEnvironment] env
// vars via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [vkit.BaseEnvironment] env vars to sensible test
// defaults. Port is required because each test must use a unique port to
// avoid collisions.
//
// Defaults:
//   - VH_SERVICE_NAME: "test"
//   - VH_HEALTH_PATH: "/healthz"
//   - VH_LOG_LEVEL: "error"
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("VH_PORT", strconv.Itoa(port))
	t.Setenv("VH_SERVICE_NAME", "test")
	t.Setenv("VH_HEALTH_PATH", "/healthz")
	t.Setenv("VH_LOG_LEVEL", "error")
	return &Env{t: t}
}

// ServiceName overrides VH_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("VH_SERVICE_NAME", name)
	return e
}

// HealthPath overrides VH_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("VH_HEALTH_PATH", path)
	return e
}

// LogLevel overrides VH_LOG_LEVEL.
func (e *Env) LogLevel(level string) *Env {
	e.t.Helper()
	e.t.Setenv("VH_LOG_LEVEL", level)
	return e
}

// StrictHeaders overrides VH_STRICT_HEADERS.
func (e *Env) StrictHeaders(strict bool) *Env {
	e.t.Helper()
	e.t.Setenv("VH_STRICT_HEADERS", strconv.FormatBool(strict))
	return e
}
