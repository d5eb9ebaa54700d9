package chrono

import (
	"context"
	"sync"
	"time"
)

// API is what every component that waits or reads the time depends on.
//
// note: fault injection point
type API interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

func (StandardImpl) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakeImpl is a manual clock, Sleep returns immediately after moving the clock forward.
type FakeImpl struct {
	mutex  sync.Mutex
	now    time.Time
	slept  time.Duration
	sleeps int
}

func NewFakeImpl(start time.Time) *FakeImpl {
	return &FakeImpl{now: start}
}

func (f *FakeImpl) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *FakeImpl) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Advance(d)
	f.mutex.Lock()
	f.sleeps++
	f.mutex.Unlock()
	return nil
}

// Advance moves the clock forward without counting as a sleep.
func (f *FakeImpl) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
	f.slept += d
}

// Elapsed returns how far the clock has moved since it was created.
func (f *FakeImpl) Elapsed() time.Duration {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.slept
}

func (f *FakeImpl) Sleeps() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.sleeps
}
