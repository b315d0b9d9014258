package workqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetOrder(t *testing.T) {
	q := New[int](0)
	a, b, c := 1, 2, 3
	q.Put(&a)
	q.Put(&b)
	q.Put(&c)

	require.Equal(t, 3, q.Depth())

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 1, *v)
	assert.Equal(t, 2, q.Depth())
	assert.Equal(t, 1, q.Pending())

	q.Done()
	assert.Equal(t, 0, q.Pending())
}

func TestPutBlocksUntilDone(t *testing.T) {
	q := New[int](1)
	a := 1
	q.Put(&a)

	v, ok := q.Get()
	require.True(t, ok)
	require.Equal(t, 1, *v)

	putReturned := make(chan struct{})
	b := 2
	go func() {
		q.Put(&b)
		close(putReturned)
	}()

	select {
	case <-putReturned:
		t.Fatal("Put returned before pending item was marked Done")
	case <-time.After(50 * time.Millisecond):
	}

	q.Done()

	select {
	case <-putReturned:
	case <-time.After(time.Second):
		t.Fatal("Put never unblocked after Done")
	}
}

func TestGetBlocksUntilDeactivate(t *testing.T) {
	q := New[int](0)

	var wg sync.WaitGroup
	wg.Add(1)
	var gotOK bool
	go func() {
		defer wg.Done()
		_, gotOK = q.Get()
	}()

	time.Sleep(20 * time.Millisecond)
	q.Deactivate()
	wg.Wait()

	assert.False(t, gotOK)
}

func TestDeactivateDrainsExistingItems(t *testing.T) {
	q := New[int](0)
	a := 7
	q.Put(&a)
	q.Deactivate()

	v, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 7, *v)

	_, ok = q.Get()
	assert.False(t, ok)
}

func TestReactivate(t *testing.T) {
	q := New[int](0)
	q.Deactivate()
	assert.False(t, q.Active())
	q.Activate()
	assert.True(t, q.Active())
}
