package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
)

const DefaultBaseURL = "https://api.chess.com/pub/player/"

type Client struct {
	httpClient    *http.Client
	baseURL       string
	maxConcurrent int
	log           *logger.Logger
}

// New creates a client; maxConcurrent bounds parallel archive downloads.
func New(baseURL string, maxConcurrent int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       baseURL,
		maxConcurrent: maxConcurrent,
		log:           logger.Default().WithPrefix("chesscom"),
	}
}

type archivesResp struct {
	Archives []string `json:"archives"`
}

func (c *Client) FetchArchives(ctx context.Context, username string) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("chesscom").WithField("username", username)
	archivesURL := c.baseURL + url.PathEscape(strings.ToLower(username)) + "/games/archives"

	log.Debug("fetching archives from: %s", archivesURL)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archivesURL, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch archives: %v", err)
		return nil, errors.NewUnavailableError("chess.com", err)
	}
	defer resp.Body.Close()

	log.Debug("archives response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("chess.com user", username)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("archives request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, errors.NewUnavailableError("chess.com", fmt.Errorf("archives status %d", resp.StatusCode))
	}

	var out archivesResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode archives response: %v", err)
		return nil, errors.NewUnavailableError("chess.com", err)
	}

	log.Info("fetched %d archives for user %s", len(out.Archives), username)
	return out.Archives, nil
}

// FetchArchivePGN downloads one monthly archive as PGN text.
func (c *Client) FetchArchivePGN(ctx context.Context, archiveURL string) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("chesscom").WithField("archive_url", archiveURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(archiveURL, "/")+"/pgn", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("failed to fetch archive: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchPGN downloads every monthly archive of a user, at most maxConcurrent at a time.
// Months that fail are skipped; the remaining parts are joined in archive order.
func (c *Client) FetchPGN(ctx context.Context, username string) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("chesscom").WithField("username", username)

	archives, err := c.FetchArchives(ctx, username)
	if err != nil {
		return "", err
	}
	if len(archives) == 0 {
		return "", errors.NewNotFoundError("chess.com games for user", username)
	}

	parts := make([]string, len(archives))
	sem := make(chan struct{}, c.maxConcurrent)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		loaded int
	)
	for i, archiveURL := range archives {
		wg.Add(1)
		go func(i int, archiveURL string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			text, err := c.FetchArchivePGN(ctx, archiveURL)
			mu.Lock()
			loaded++
			log.Debug("archive progress %d/%d", loaded, len(archives))
			mu.Unlock()
			if err != nil {
				log.Warn("skipping archive %s: %v", archiveURL, err)
				return
			}
			parts[i] = text
		}(i, archiveURL)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	if len(kept) == 0 {
		return "", errors.NewNotFoundError("chess.com games for user", username)
	}
	log.Info("downloaded %d of %d archives", len(kept), len(archives))
	return strings.Join(kept, "\n\n"), nil
}
