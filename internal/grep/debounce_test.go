package grep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sunhs/consult.code/internal/consult/consulttest"
)

func newTestDebouncer(interval time.Duration) (*Debouncer, *consulttest.Clock, *consulttest.Loop) {
	clock := consulttest.NewClock()
	loop := &consulttest.Loop{}
	return NewDebouncer(interval, loop.Post, WithClock(clock.Now, clock.AfterFunc)), clock, loop
}

func TestDebouncer_RunsImmediatelyAfterInterval(t *testing.T) {
	d, clock, _ := newTestDebouncer(time.Second)
	d.Reset()
	clock.Advance(2 * time.Second)

	var ran []string
	d.Trigger("abc", func() string { return "abc" }, func(v string) { ran = append(ran, v) })
	assert.Equal(t, []string{"abc"}, ran)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d, clock, loop := newTestDebouncer(time.Second)
	d.Reset()

	value := "abc"
	current := func() string { return value }
	var ran []string
	run := func(v string) { ran = append(ran, v) }

	d.Trigger("abc", current, run)
	clock.Advance(500 * time.Millisecond)
	value = "abcd"
	d.Trigger("abcd", current, run)
	loop.Drain()
	assert.Empty(t, ran)

	clock.Advance(499 * time.Millisecond)
	loop.Drain()
	assert.Empty(t, ran)

	clock.Advance(time.Millisecond)
	loop.Drain()
	assert.Equal(t, []string{"abcd"}, ran)
}

func TestDebouncer_OneSearchPerInterval(t *testing.T) {
	d, clock, loop := newTestDebouncer(time.Second)
	d.Reset()

	value := "abcd"
	current := func() string { return value }
	var ran []string
	run := func(v string) { ran = append(ran, v) }

	d.Trigger("abcd", current, run)
	clock.Advance(200 * time.Millisecond)
	value = "abcde"
	d.Trigger("abcde", current, run)
	clock.Advance(200 * time.Millisecond)
	value = "abcd"
	d.Trigger("abcd", current, run)

	clock.Advance(600 * time.Millisecond)
	loop.Drain()
	assert.Equal(t, []string{"abcd"}, ran)

	clock.Advance(2 * time.Second)
	loop.Drain()
	assert.Equal(t, []string{"abcd"}, ran)
}

func TestDebouncer_StaleCheckAlreadyPosted(t *testing.T) {
	d, clock, loop := newTestDebouncer(time.Second)
	d.Reset()

	var ran []string
	d.Trigger("abc", func() string { return "abc" }, func(v string) { ran = append(ran, v) })
	// The timer fires and posts its check, but a reset lands first.
	clock.Advance(time.Second)
	d.Reset()
	loop.Drain()
	assert.Empty(t, ran)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d, clock, loop := newTestDebouncer(time.Second)
	d.Reset()

	var ran []string
	d.Trigger("abc", func() string { return "abc" }, func(v string) { ran = append(ran, v) })
	d.Stop()
	clock.Advance(2 * time.Second)
	loop.Drain()
	assert.Empty(t, ran)
}

func TestDebouncer_DefaultInterval(t *testing.T) {
	d := NewDebouncer(0, func(fn func()) { fn() })
	assert.Equal(t, DefaultDebounce, d.interval)
}
