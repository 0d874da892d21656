package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

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

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := testLogger()
	registry, err := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{},
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx := context.Background()
	err = service.runCycle(ctx)
	if err == nil || !strings.Contains(err.Error(), "job fail: boom") {
		t.Fatalf("expected the failing job in the cycle error, got %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if success, ok := jobs[0].(*testJob); ok {
		if success.runs != 1 {
			t.Fatalf("expected success job to run once, ran %d", success.runs)
		}
	} else {
		t.Fatalf("first job type mismatch")
	}
	if failure, ok := jobs[1].(*testJob); ok {
		if failure.runs != 1 {
			t.Fatalf("expected failure job to run once, ran %d", failure.runs)
		}
	} else {
		t.Fatalf("second job type mismatch")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sweep"}
	lock := &fakeLock{acquired: true}
	registry, _ := NewRegistry(job)
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs while another worker holds the lock, got %d", job.runs)
	}
}

type slowJob struct {
	name string
	runs int
}

func (s *slowJob) Name() string { return s.name }

func (s *slowJob) Run(ctx context.Context) error {
	s.runs++
	<-ctx.Done()
	return ctx.Err()
}

func TestCycleTimeoutSkipsRemainingJobs(t *testing.T) {
	slow := &slowJob{name: "slow"}
	next := &testJob{name: "next"}
	registry, _ := NewRegistry(slow, next)
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		Registry:     registry,
		Lock:         &fakeLock{},
		CycleTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "job next skipped") {
		t.Fatalf("expected next job to be skipped, got %v", err)
	}
	if slow.runs != 1 || next.runs != 0 {
		t.Fatalf("unexpected runs slow=%d next=%d", slow.runs, next.runs)
	}
}

func TestLockReleasedAfterCycle(t *testing.T) {
	lock := &fakeLock{}
	registry, _ := NewRegistry(&testJob{name: "a"})
	service, _ := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock})
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if lock.acquired {
		t.Fatal("lock still held after the cycle")
	}
}
