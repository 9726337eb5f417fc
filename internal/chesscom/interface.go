package chesscom

import "context"

// ClientInterface defines the Chess.com API operations used by imports.
type ClientInterface interface {
	FetchArchives(ctx context.Context, username string) ([]string, error)
	FetchArchivePGN(ctx context.Context, archiveURL string) (string, error)
	FetchPGN(ctx context.Context, username string) (string, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
