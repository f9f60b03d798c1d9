package git

import (
	"context"

	"benchkeep/internal/benchdata"
)

// IClient reads the commit metadata a benchmark run is recorded against.
type IClient interface {
	CommitInfo(ctx context.Context, dir, rev string) (benchdata.Commit, error)
	HeadCommit(ctx context.Context, dir string) (benchdata.Commit, error)
	RemoteURL(ctx context.Context, dir, remote string) (string, error)
}
