// Package vkittest provides test helpers for vkit applications.
//
// It constructs the identical DI graph as [vkit.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	vkittest.SetBaseEnv(t, 18081)
//	app := vkittest.New[TestEnv](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package vkittest

import (
	"testing"

	"github.com/vhttp/vhttp/vkit"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing vkit applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [vkit.NewApp].
func New[E vkit.Environment](t testing.TB, routing any, opts ...vkit.Option) *App {
	return &App{App: fxtest.New(t, vkit.FxOptions[E](routing, opts...)...)}
}
