//go:build unit
// +build unit

package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

type countingParams struct {
	Label string `toml:"label"`
	Limit int    `toml:"limit"`
}

type countingTask struct {
	DefaultTaskImpl
	params  *countingParams
	count   int32
	cleaned int32
	setup   error
}

func (c *countingTask) GetEmptyParams() interface{} {
	return &countingParams{Label: "default", Limit: 1}
}

func (c *countingTask) SetParams(p interface{}) error {
	cp, ok := p.(*countingParams)
	if !ok {
		return errors.New("unexpected params")
	}
	c.params = cp
	return nil
}

func (c *countingTask) Setup() error { return c.setup }

func (c *countingTask) Task() { atomic.AddInt32(&c.count, 1) }

func (c *countingTask) Cleanup() { atomic.StoreInt32(&c.cleaned, 1) }

func TestNewRunContextFromString(t *testing.T) {
	tests := []struct {
		name       string
		toml       string
		wantPeriod time.Duration
		wantParams countingParams
		wantError  string
	}{
		{
			name: "params decoded",
			toml: heredoc.Doc(`
				[run_group.periodic_tasks.counter]
				period = "10ms"
				[run_group.periodic_tasks.counter.params]
				label = "fast"
				limit = 3
			`),
			wantPeriod: 10 * time.Millisecond,
			wantParams: countingParams{Label: "fast", Limit: 3},
		},
		{
			name: "defaults kept",
			toml: heredoc.Doc(`
				[run_group.periodic_tasks.counter]
				period = "1s"
			`),
			wantPeriod: time.Second,
			wantParams: countingParams{Label: "default", Limit: 1},
		},
		{
			name: "unknown task",
			toml: heredoc.Doc(`
				[run_group.periodic_tasks.missing]
				period = "1s"
			`),
			wantError: "failed to find missing implementation from PeriodicTaskImplMap",
		},
		{
			name: "invalid period",
			toml: heredoc.Doc(`
				[run_group.periodic_tasks.counter]
				period = "0s"
			`),
			wantError: "period of counter must be positive, got 0s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &countingTask{}
			rc, err := NewRunContextFromString(tt.toml, PeriodicTaskImplMap{"counter": task})
			if tt.wantError != "" {
				assert.EqualError(t, err, tt.wantError)
				return
			}
			assert.Nil(t, err)
			pt, ok := rc.PeriodicTasks["counter"]
			assert.True(t, ok)
			assert.Equal(t, tt.wantPeriod, pt.Period)
			assert.Equal(t, &tt.wantParams, task.params)
		})
	}
}

func TestNewRunContextSetupError(t *testing.T) {
	task := &countingTask{setup: errors.New("setup failed")}
	_, err := NewRunContextFromString(heredoc.Doc(`
		[run_group.periodic_tasks.counter]
		period = "1s"
	`), PeriodicTaskImplMap{"counter": task})
	assert.EqualError(t, err, "setup failed")
}

func TestPeriodicTaskRun(t *testing.T) {
	task := &countingTask{}
	rc, err := NewRunContextFromString(heredoc.Doc(`
		[run_group.periodic_tasks.counter]
		period = "5ms"
	`), PeriodicTaskImplMap{"counter": task})
	assert.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	rc.Group.Add(func() error {
		<-ctx.Done()
		return ctx.Err()
	}, func(error) {
		cancel()
	})
	err = rc.Group.Run()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&task.count), int32(2))
	assert.Equal(t, int32(1), atomic.LoadInt32(&task.cleaned))
}
