package report

import (
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/witnessgen/internal/history"
)

func TestHistoryTable(t *testing.T) {
	exit := 0
	count := 12
	fp := "0123456789abcdef0123"
	elapsed := 1500 * time.Millisecond
	sig := "killed"

	runs := []*history.Run{
		{
			ID:            "11111111-2222-3333-4444-555555555555",
			Status:        history.StatusSucceeded,
			CacheMode:     "delete",
			L2ChainID:     10,
			L2BlockNumber: 1234,
			ExitCode:      &exit,
			Elapsed:       &elapsed,
			PreimageCount: &count,
			Fingerprint:   &fp,
			StartedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID:        "aaaaaaaa-bbbb",
			Status:    history.StatusFailed,
			CacheMode: "delete",
			Signal:    &sig,
			StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	out := HistoryTable(NewDefaultTheme(), runs)
	for _, want := range []string{"RUN", "FINGERPRINT", "11111111", "succeeded", "10/1234", "1.5s", "0123456789ab", "aaaaaaaa", "sig killed", "2026-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef0123") {
		t.Errorf("fingerprint not shortened:\n%s", out)
	}
}

func TestHistoryTable_Empty(t *testing.T) {
	out := HistoryTable(NewDefaultTheme(), nil)
	if !strings.Contains(out, "no recorded runs") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunDetail(t *testing.T) {
	msg := "host: native host exited with status 3"
	r := &history.Run{
		ID:        "run-1",
		Binary:    "native_host_runner",
		Status:    history.StatusFailed,
		Args:      []string{"--l2-chain-id=10", "--server"},
		LastError: &msg,
	}
	out := RunDetail(NewDefaultTheme(), r)
	for _, want := range []string{"run-1", "native_host_runner", "--l2-chain-id=10 --server", msg} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "completed") {
		t.Errorf("incomplete run should not print completion time:\n%s", out)
	}
}

func TestWitnessSummary(t *testing.T) {
	out := WitnessSummary(NewDefaultTheme(), "", 2*time.Second, 7, "beef")
	for _, want := range []string{"witness ready", "run:         -", "2s", "preimages:   7", "beef"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
