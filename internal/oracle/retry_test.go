package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyClient fails a fixed number of times before succeeding.
type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient")
	}
	return "ok", nil
}

func zeroSleepConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Second,
		Sleep:       func(time.Duration) {},
	}
}

func TestCallerSucceedsFirstTry(t *testing.T) {
	c := NewCaller(&flakyClient{}, zeroSleepConfig(3))
	text, err := c.GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestCallerRetriesThenSucceeds(t *testing.T) {
	client := &flakyClient{failures: 2}
	c := NewCaller(client, zeroSleepConfig(3))

	text, err := c.GenerateText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, client.calls)
}

func TestCallerExhaustsBudget(t *testing.T) {
	client := &flakyClient{failures: 10}
	c := NewCaller(client, zeroSleepConfig(3))

	_, err := c.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 3, client.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestCallerLinearBackoff(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	}
	c := NewCaller(&flakyClient{failures: 10}, cfg)

	_, err := c.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestCallerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCaller(&flakyClient{failures: 10}, zeroSleepConfig(3))
	_, err := c.GenerateText(ctx, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockCyclesResponses(t *testing.T) {
	m := NewMock("a", "b")
	ctx := context.Background()

	r1, _ := m.GenerateText(ctx, "p1")
	r2, _ := m.GenerateText(ctx, "p2")
	r3, _ := m.GenerateText(ctx, "p3")
	assert.Equal(t, "a", r1)
	assert.Equal(t, "b", r2)
	assert.Equal(t, "b", r3) // last response repeats
	assert.Equal(t, []string{"p1", "p2", "p3"}, m.Prompts)
}

func TestMockError(t *testing.T) {
	m := NewMock("a")
	m.Err = ErrTimeout

	_, err := m.GenerateText(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "mock", callErr.Variant)
}
