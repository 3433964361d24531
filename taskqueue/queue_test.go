package taskqueue

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainRunsInSubmissionOrder(t *testing.T) {
	q := New()
	var got []int
	for i := 1; i <= 3; i++ {
		q.Submit(func() { got = append(got, i) })
	}
	assert.Equal(t, 3, q.Len())
	assert.Empty(t, got, "submit must not run tasks inline")

	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Zero(t, q.Len())

	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2, 3}, got, "second drain does no work")
}

func TestSubmitFromManyGoroutines(t *testing.T) {
	const (
		producers = 8
		perWorker = 250
	)
	q := New(WithCapacity(producers * perWorker))
	var (
		wg   sync.WaitGroup
		seen = make(map[[2]int]int)
		last = make([]int, producers)
	)
	for p := range producers {
		last[p] = -1
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				q.Submit(func() {
					seen[[2]int{p, i}]++
					assert.Greater(t, i, last[p], "producer %d out of order", p)
					last[p] = i
				})
			}
		}()
	}
	wg.Wait()

	require.NoError(t, q.Drain())
	assert.Len(t, seen, producers*perWorker)
	for k, n := range seen {
		assert.Equal(t, 1, n, "task %v", k)
	}
}

func TestNilTaskIgnored(t *testing.T) {
	q := New()
	q.Submit(nil)
	assert.Zero(t, q.Len())
	assert.NoError(t, q.Drain())
}

func TestTaskSubmittedDuringDrainRunsNextTime(t *testing.T) {
	q := New()
	var order []string
	q.Submit(func() {
		order = append(order, "outer")
		q.Submit(func() { order = append(order, "inner") })
	})

	require.NoError(t, q.Drain())
	assert.Equal(t, []string{"outer"}, order)
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.Drain())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestPanicsAreCollectedAndDrainContinues(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
	q := New(WithLogger(logger))

	sentinel := errors.New("boom")
	var ran []int
	q.Submit(func() { ran = append(ran, 1) })
	q.Submit(func() { panic(sentinel) })
	q.Submit(func() { ran = append(ran, 3) })
	q.Submit(func() { panic("plain") })

	err := q.Drain()
	require.Error(t, err)
	assert.Equal(t, []int{1, 3}, ran)
	assert.ErrorIs(t, err, sentinel)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Stack)
	assert.Contains(t, err.Error(), "plain")
	assert.Contains(t, buf.String(), "deferred task panicked")

	q.Submit(func() { ran = append(ran, 5) })
	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 3, 5}, ran)
}

func BenchmarkSubmitDrain(b *testing.B) {
	q := New()
	task := func() {}
	for b.Loop() {
		for range 8 {
			q.Submit(task)
		}
		_ = q.Drain()
	}
}
