package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

func TestEngineOptionsFromConfig(t *testing.T) {
	opts, err := EngineOptions(config.EngineConfig{
		BusinessDuplicates: "Dedupe",
		AdsDuplicates:      "sum",
		WeekStart:          "monday",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Monday, opts.WeekStart)
	assert.Equal(t, enums.DuplicatePolicyDedupe, opts.BusinessPolicy)
	assert.Equal(t, enums.DuplicatePolicySum, opts.AdsPolicy)
}

func TestEngineOptionsDefaults(t *testing.T) {
	opts, err := EngineOptions(config.EngineConfig{})
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, opts.WeekStart)
	assert.Equal(t, enums.DuplicatePolicySum, opts.BusinessPolicy)
}

func TestEngineOptionsRejectsUnknownPolicy(t *testing.T) {
	_, err := EngineOptions(config.EngineConfig{BusinessDuplicates: "average"})
	require.Error(t, err)

	_, err = EngineOptions(config.EngineConfig{WeekStart: "someday"})
	require.Error(t, err)
}

func TestBuildCacheSelectsBackend(t *testing.T) {
	cache, err := buildCache(config.CacheConfig{Backend: "memory", TTL: time.Minute}, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Name())

	cache, err = buildCache(config.CacheConfig{Backend: "OFF"}, nil)
	require.NoError(t, err)
	assert.IsType(t, snapshot.NoopCache{}, cache)

	_, err = buildCache(config.CacheConfig{Backend: "redis"}, nil)
	require.Error(t, err)

	_, err = buildCache(config.CacheConfig{Backend: "memcached"}, nil)
	require.Error(t, err)
}

func TestStackCloseRunsInReverse(t *testing.T) {
	var order []string
	stack := &Stack{deps: map[string]Pinger{}}
	stack.track("a", nil, func() error { order = append(order, "a"); return nil })
	stack.track("b", nil, func() error { order = append(order, "b"); return nil })

	require.NoError(t, stack.Close())
	assert.Equal(t, []string{"b", "a"}, order)
	assert.Empty(t, stack.Deps())
}
