package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("object.placed", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("object.placed", "desk", 123)))
	require.NoError(t, b.Publish(NewEvent("object.removed", "desk", 456)))

	assert.Equal(t, []any{123}, got)
}

func TestWildcardReceivesEverything(t *testing.T) {
	b := New()
	var types []string
	_, err := b.Subscribe(WildcardType, func(e Event) error {
		types = append(types, e.Type())
		return nil
	})
	require.NoError(t, err)

	_ = b.Publish(NewEvent("a", "src", nil))
	_ = b.Publish(NewEvent("b", "src", nil))
	assert.Equal(t, []string{"a", "b"}, types)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return errB })
	calls := 0
	_, _ = b.Subscribe("x", func(Event) error { calls++; return nil })

	err := b.Publish(NewEvent("x", "src", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, calls, "a failing handler must not stop delivery")
	assert.Equal(t, uint64(1), b.Metrics().Errors)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("x", func(Event) error { count++; return nil })
	require.NoError(t, err)

	_ = b.Publish(NewEvent("x", "src", nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	_ = b.Publish(NewEvent("x", "src", nil))

	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
	assert.Equal(t, uint64(0), b.Metrics().SubscribersActive)
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestNilHandlerRejected(t *testing.T) {
	_, err := New().Subscribe("x", nil)
	assert.Error(t, err)
}

func TestConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	_, _ = b.Subscribe("tick", func(Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Publish(NewEvent("tick", "src", nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
	assert.Equal(t, uint64(50), b.Metrics().Published)
}
