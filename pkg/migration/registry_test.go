package migration_test

import (
	"context"
	"testing"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/stretchr/testify/require"
)

func TestRegisterHook(t *testing.T) {
	noop := func(context.Context, migration.Executor) error { return nil }

	require.NoError(t, migration.RegisterHook("registry_test_noop", noop))

	hook, ok := migration.LookupHook("registry_test_noop")
	require.True(t, ok)
	require.NotNil(t, hook)

	t.Run("duplicate registration", func(t *testing.T) {
		require.ErrorContains(t, migration.RegisterHook("registry_test_noop", noop), "already registered")
	})

	t.Run("empty name", func(t *testing.T) {
		require.Error(t, migration.RegisterHook("", noop))
	})

	t.Run("nil hook", func(t *testing.T) {
		require.Error(t, migration.RegisterHook("registry_test_nil", nil))
	})

	t.Run("unknown lookup", func(t *testing.T) {
		_, ok := migration.LookupHook("registry_test_missing")
		require.False(t, ok)
	})
}
