package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorStore connects to the Firestore emulator, skipping the test
// when none is configured.
func newEmulatorStore(t *testing.T) *Firestore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	f, err := NewFirestore(ctx, "igralnica-test")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFirestoreBatchPrecondition(t *testing.T) {
	f := newEmulatorStore(t)
	ctx := context.Background()
	coll := fmt.Sprintf("systems_%d", time.Now().UnixNano())

	id := f.NewID(coll)
	require.NoError(t, f.Set(ctx, coll, id, map[string]any{"available": true, "name": "PS5 Cart"}))

	require.NoError(t, f.Batch(ctx, []Op{
		UpdateOp(coll, id, map[string]any{"available": false}).If(Where("available", Eq, true)),
	}))
	err := f.Batch(ctx, []Op{
		UpdateOp(coll, id, map[string]any{"available": false}).If(Where("available", Eq, true)),
	})
	assert.ErrorIs(t, err, ErrPrecondition)

	doc, err := f.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.Equal(t, false, doc.Fields["available"])

	_, err = f.Get(ctx, coll, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.Update(ctx, coll, "missing", map[string]any{"a": 1}), ErrNotFound)
}

func TestFirestoreSubscribe(t *testing.T) {
	f := newEmulatorStore(t)
	ctx := context.Background()
	coll := fmt.Sprintf("notifications_%d", time.Now().UnixNano())

	sub, err := f.Subscribe(ctx, From(coll).Where("read", Eq, false))
	require.NoError(t, err)
	defer sub.Close()

	waitFor(t, sub, func(s Snapshot) bool { return len(s.Documents) == 0 })
	_, err = f.Create(ctx, coll, map[string]any{"read": false})
	require.NoError(t, err)
	waitFor(t, sub, func(s Snapshot) bool { return len(s.Documents) == 1 })
}
