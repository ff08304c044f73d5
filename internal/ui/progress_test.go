package ui

import (
	"strings"
	"testing"
	"time"

	"waspy/internal/driver"
)

func TestApplyEventTracksStages(t *testing.T) {
	m := NewProgressModel("build", []string{"app", "lib.util"}, nil).(*progressModel)

	m.applyEvent(driver.Event{Module: "app", Stage: driver.StageSema, Status: driver.StatusWorking})
	if m.items[0].status != "checking" {
		t.Errorf("status = %q, want checking", m.items[0].status)
	}
	m.applyEvent(driver.Event{Module: "lib.util", Status: driver.StatusError, Elapsed: 3 * time.Millisecond})
	m.applyEvent(driver.Event{Module: "app", Status: driver.StatusDone, Cached: true})
	m.applyEvent(driver.Event{Module: "unknown", Status: driver.StatusDone})

	if m.finished() != 2 || m.failed != 1 {
		t.Errorf("finished = %d, failed = %d", m.finished(), m.failed)
	}
	m.done = true
	view := m.View()
	for _, want := range []string{"done: build (2/2), 1 failed", "app", "cached", "lib.util", "3ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressFromStageIsMonotonic(t *testing.T) {
	prev := progressFromStage("")
	for _, st := range driver.Stages {
		p := progressFromStage(st)
		if p <= prev || p >= 1 {
			t.Errorf("progress of %s = %v after %v", st, p, prev)
		}
		prev = p
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("package.module.name", 10); got != "package..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("exactly10!", 10); got != "exactly10!" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
