package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingHealthChecker(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewOkHealthChecker().Healthy(ctx))
	assert.True(t, NewPingHealthChecker(pingFunc(func(context.Context) error { return nil })).Healthy(ctx))
	assert.False(t, NewPingHealthChecker(pingFunc(func(context.Context) error { return errors.New("down") })).Healthy(ctx))
	assert.False(t, NewPingHealthChecker(nil).Healthy(ctx))
}
