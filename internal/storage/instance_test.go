package storage

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLifecycle(t *testing.T) {
	t.Cleanup(func() { Shutdown() })

	_, err := Default()
	assert.ErrorIs(t, err, ErrNotInitialized)

	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Init(path)
	require.NoError(t, err)

	_, err = Init(path)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	got, err := Default()
	require.NoError(t, err)
	assert.Same(t, db, got)

	require.NoError(t, Shutdown())
	_, err = Default()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, Shutdown())
}
