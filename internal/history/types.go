package history

import (
	"errors"
	"time"

	"github.com/mattjoyce/witnessgen/internal/host"
)

type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusTimedOut    Status = "timed_out"
	StatusSpawnFailed Status = "spawn_failed"
	StatusCancelled   Status = "cancelled"
	// StatusCached marks a run that reused on-disk preimages without
	// spawning the native host.
	StatusCached Status = "cached"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s != StatusRunning && s != ""
}

// Run is one recorded witness generation.
type Run struct {
	ID            string         `json:"id"`
	Binary        string         `json:"binary"`
	L2ChainID     uint64         `json:"l2_chain_id"`
	L2BlockNumber uint64         `json:"l2_block_number"`
	L2Claim       string         `json:"l2_claim"`
	DataDir       string         `json:"data_dir,omitempty"`
	Args          []string       `json:"args"`
	CacheMode     string         `json:"cache_mode"`
	Status        Status         `json:"status"`
	PID           *int           `json:"pid,omitempty"`
	ExitCode      *int           `json:"exit_code,omitempty"`
	Signal        *string        `json:"signal,omitempty"`
	Elapsed       *time.Duration `json:"elapsed_ns,omitempty"`
	PreimageCount *int           `json:"preimage_count,omitempty"`
	Fingerprint   *string        `json:"fingerprint,omitempty"`
	LastError     *string        `json:"last_error,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// BeginRequest describes a run about to start.
type BeginRequest struct {
	Binary    string
	Request   host.Request
	CacheMode string
}

// Outcome is the terminal state written by Finish. Zero-valued optional
// fields are stored as NULL.
type Outcome struct {
	Status        Status
	PID           int
	ExitCode      *int
	Signal        string
	Elapsed       time.Duration
	PreimageCount *int
	Fingerprint   string
	Err           error
}

var ErrRunNotFound = errors.New("run not found")
