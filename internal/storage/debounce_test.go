package storage

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerZeroDelayWritesSynchronously(t *testing.T) {
	d := NewDebouncer(0)
	var calls int32
	d.Schedule(func() { atomic.AddInt32(&calls, 1) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, d.Pending())
}

func TestDebouncerKeepsOnlyTheLastWrite(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var last, calls int32
	for i := int32(1); i <= 5; i++ {
		v := i
		d.Schedule(func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, v)
		})
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
}

func TestDebouncerFlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls int32
	d.Schedule(func() { atomic.AddInt32(&calls, 1) })
	d.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	d.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	d.Schedule(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()
	d.Flush()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDebouncerFlushWaitsForWriteInProgress(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	d.Schedule(func() {
		close(started)
		<-release
	})
	<-started

	flushed := make(chan struct{})
	go func() {
		d.Flush()
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("flush returned while a write was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("flush did not return after the write finished")
	}
}
