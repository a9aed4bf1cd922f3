package vhttp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vhttp/vhttp"
)

func TestTestLoggerCounts(t *testing.T) {
	l := vhttp.NewTestLogger(t)

	l.LogUnhandledDispatchError(assert.AnError)
	l.LogFlushError(assert.AnError)
	l.LogFlushError(assert.AnError)

	assert.EqualValues(t, 1, l.NumLogUnhandledDispatchError)
	assert.EqualValues(t, 2, l.NumLogFlushError)
}

func TestTestLoggerWithoutTB(t *testing.T) {
	l := vhttp.NewTestLogger(nil)

	assert.NotPanics(t, func() {
		l.LogUnhandledDispatchError(assert.AnError)
		l.LogFlushError(assert.AnError)
	})
	assert.EqualValues(t, 1, l.NumLogUnhandledDispatchError)
	assert.EqualValues(t, 1, l.NumLogFlushError)
}
