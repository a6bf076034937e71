// Package witness runs the native host and loads the preimages it wrote.
package witness

import (
	"context"
	"time"

	"github.com/mattjoyce/witnessgen/internal/history"
	"github.com/mattjoyce/witnessgen/internal/host"
)

//go:generate mockgen -destination=mocks/mock_witness.go -package=mocks github.com/mattjoyce/witnessgen/internal/witness HostRunner,Recorder

// HostRunner runs the native host once. *host.Supervisor implements it.
type HostRunner interface {
	Binary() string
	Run(ctx context.Context, req host.Request, timeout time.Duration) (host.Result, error)
}

// Recorder persists run bookkeeping. *history.Ledger implements it.
type Recorder interface {
	Begin(ctx context.Context, req history.BeginRequest) (string, error)
	Finish(ctx context.Context, id string, out history.Outcome) error
}
