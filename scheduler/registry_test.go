package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUpsertIsIdempotent(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C1", func() {}))
	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C1", func() {}))

	assert.Equal(t, 1, registry.Len())
}

func TestRegistryUpsertReplacesChangedSpec(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C1", func() {}))
	require.NoError(t, registry.Upsert("standup_T1", "30 15 * * *", "C1", func() {}))

	assert.Equal(t, 1, registry.Len())
	spec, ok := registry.Spec("standup_T1")
	require.True(t, ok)
	assert.Equal(t, "30 15 * * *", spec)
}

func TestRegistryUpsertReplacesChangedArgs(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C1", func() {}))
	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C2", func() {}))

	assert.Equal(t, 1, registry.Len())
}

func TestRegistryUpsertRejectsInvalidSpec(t *testing.T) {
	registry := NewRegistry()

	err := registry.Upsert("standup_T1", "not a cron spec", "C1", func() {})
	require.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryTracksDistinctNames(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Upsert("standup_T1", "0 14 * * *", "C1", func() {}))
	require.NoError(t, registry.Upsert("standup_T2", "0 9 * * *", "C2", func() {}))

	assert.Equal(t, 2, registry.Len())
}
