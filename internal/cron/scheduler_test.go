package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	scheduler, err := NewScheduler(SchedulerParams{
		Logger: testLogger(),
		Jobs:   []Job{success, failing},
		Lock:   &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct scheduler: %v", err)
	}

	if err := scheduler.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failing.runs != 1 {
		t.Fatalf("expected failing job to run once, ran %d", failing.runs)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{held: true}
	scheduler, err := NewScheduler(SchedulerParams{
		Logger: testLogger(),
		Jobs:   []Job{job},
		Lock:   lock,
	})
	if err != nil {
		t.Fatalf("construct scheduler: %v", err)
	}

	if err := scheduler.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped while lock held, ran %d", job.runs)
	}
	if lock.acquires != 1 {
		t.Fatalf("expected one acquire attempt, got %d", lock.acquires)
	}
}

func TestRunCycleReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	scheduler, err := NewScheduler(SchedulerParams{
		Logger: testLogger(),
		Jobs:   []Job{&testJob{name: "job"}},
		Lock:   lock,
	})
	if err != nil {
		t.Fatalf("construct scheduler: %v", err)
	}

	if err := scheduler.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.held {
		t.Fatalf("expected lock released after cycle")
	}
}
