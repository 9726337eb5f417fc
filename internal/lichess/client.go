package lichess

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
)

const (
	DefaultBaseURL  = "https://lichess.org/api/games/user/"
	DefaultMaxGames = 2000
	perfTypes       = "blitz,rapid,classical,correspondence,standard"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	maxGames   int
}

func New(baseURL string, maxGames int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	return &Client{
		// Exports stream slowly for large accounts.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
		maxGames:   maxGames,
	}
}

func (c *Client) exportURL(username string) string {
	q := url.Values{}
	q.Set("tags", "true")
	q.Set("clocks", "false")
	q.Set("evals", "false")
	q.Set("opening", "true")
	q.Set("max", strconv.Itoa(c.maxGames))
	q.Set("perfType", perfTypes)
	return c.baseURL + url.PathEscape(username) + "?" + q.Encode()
}

// FetchPGN streams a user's game export. Progress is logged per game header seen.
func (c *Client) FetchPGN(ctx context.Context, username string) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("lichess").WithField("username", username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exportURL(username), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/x-chess-pgn")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch games: %v", err)
		return "", errors.NewUnavailableError("lichess", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", errors.NewNotFoundError("lichess user", username)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("export failed: status=%d, body=%s", resp.StatusCode, string(body))
		return "", errors.NewUnavailableError("lichess", fmt.Errorf("status %d", resp.StatusCode))
	}

	var (
		sb    strings.Builder
		games int
	)
	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		sb.WriteString(line)
		if strings.HasPrefix(line, "[Event ") {
			games++
			if games%100 == 0 {
				log.Debug("received %d games", games)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("stream interrupted after %d games: %v", games, err)
			return "", errors.NewUnavailableError("lichess", err)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.NewNotFoundError("lichess games for user", username)
	}
	log.Info("received %d games in %v", games, time.Since(start))
	return text, nil
}
