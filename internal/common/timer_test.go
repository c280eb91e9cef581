package common

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	timer := NewNamedTimer("work")
	time.Sleep(time.Millisecond)
	d := timer.Stop()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, d, timer.Duration())
	assert.Equal(t, "work", timer.Name())
	assert.True(t, strings.HasPrefix(timer.String(), "work: "))
}

func TestTimer_Unnamed(t *testing.T) {
	timer := NewTimer()
	timer.Stop()
	assert.Empty(t, timer.Name())
	assert.NotContains(t, timer.String(), ":")
}

func TestStageRecorder(t *testing.T) {
	r := NewStageRecorder()
	r.Record("fast", 2*time.Millisecond)
	r.Record("slow", 10*time.Millisecond)

	stages := r.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "fast", stages[0].Name, "insertion order preserved")
	assert.Equal(t, 12*time.Millisecond, r.Total())

	attrs := r.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "slow", attrs[0].Key, "slowest stage first")

	s := r.String()
	assert.Contains(t, s, "fast=2ms")
	assert.Contains(t, s, "slow=10ms")
}

func TestStageRecorder_Time(t *testing.T) {
	r := NewStageRecorder()
	ran := false
	r.Time("step", func() { ran = true })
	assert.True(t, ran)
	stages := r.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, "step", stages[0].Name)
}

func TestStageRecorder_ConcurrentRecord(t *testing.T) {
	r := NewStageRecorder()
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record("stage", time.Microsecond)
		}()
	}
	wg.Wait()
	assert.Len(t, r.Stages(), 32)
	assert.Equal(t, 32*time.Microsecond, r.Total())
}
