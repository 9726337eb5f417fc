package opening

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
)

const treeService = "opening tree"

// MoveNode is a node of the user-curated opening tree. The root stands for the initial
// position and has an empty Move.
type MoveNode struct {
	Move     string      `json:"move"`
	Name     *string     `json:"name"`
	Link     *string     `json:"link"`
	Children []*MoveNode `json:"children"`
}

// Whitelisted reports whether the node carries an authoritative name: only nodes with both a
// name and a link qualify.
func (n *MoveNode) Whitelisted() bool {
	return n != nil && n.Name != nil && n.Link != nil && *n.Name != "" && *n.Link != ""
}

// Child returns the child reached by san, or nil.
func (n *MoveNode) Child(san string) *MoveNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c != nil && c.Move == san {
			return c
		}
	}
	return nil
}

// TreeHit is the deepest whitelisted node found on a path.
type TreeHit struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Depth int    `json:"depth"`
}

// Traverse walks root along moves[:length] and returns the deepest whitelisted node. Unnamed
// or unlinked nodes are passed through. A negative length walks nothing; a length beyond
// len(moves) walks the whole sequence.
func Traverse(root *MoveNode, moves []string, length int) *TreeHit {
	if length > len(moves) {
		length = len(moves)
	}
	var hit *TreeHit
	node := root
	for i := 0; i < length; i++ {
		node = node.Child(moves[i])
		if node == nil {
			break
		}
		if node.Whitelisted() {
			hit = &TreeHit{Name: *node.Name, Link: *node.Link, Depth: i + 1}
		}
	}
	return hit
}

// TreeStatus describes the cache for status endpoints.
type TreeStatus struct {
	Available bool      `json:"available"`
	Loaded    bool      `json:"loaded"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// TreeClient caches the remote opening tree. A failed load leaves the client empty and
// unavailable; callers keep working without tree names.
type TreeClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	mu        sync.RWMutex
	tree      *MoveNode
	available bool
	loadedAt  time.Time
	lastErr   string
}

func NewTreeClient(baseURL string, timeout time.Duration) *TreeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TreeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Load fetches the slim tree and replaces the cache. On failure the cache is cleared, the
// client is marked unavailable and the error is returned for logging only.
func (c *TreeClient) Load(ctx context.Context) (*MoveNode, error) {
	log := logger.FromContext(ctx).WithPrefix("opening_tree")

	tree, err := c.fetchSlim(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Warn("opening tree unreachable: %v", err)
		c.tree = nil
		c.available = false
		c.lastErr = err.Error()
		return nil, err
	}
	c.tree = tree
	c.available = true
	c.loadedAt = time.Now()
	c.lastErr = ""
	log.Info("opening tree loaded: %d top-level moves", len(tree.Children))
	return tree, nil
}

func (c *TreeClient) fetchSlim(ctx context.Context) (*MoveNode, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/moves/slim", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("slim tree status %d: %s", resp.StatusCode, string(body))
	}

	var tree MoveNode
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode slim tree: %w", err)
	}
	return &tree, nil
}

type saveNameRequest struct {
	Moves []string `json:"moves"`
	Name  string   `json:"name"`
}

type saveNameResponse struct {
	Success bool            `json:"success"`
	Moves   json.RawMessage `json:"moves"`
}

// SaveName names the position reached by moves. The write response is not trusted as a slim
// tree: on success the slim tree is fetched again and returned.
func (c *TreeClient) SaveName(ctx context.Context, moves []string, name string) (*MoveNode, error) {
	log := logger.FromContext(ctx).WithPrefix("opening_tree").WithField("plies", len(moves))

	if len(moves) == 0 {
		return nil, errors.NewValidationError("moves", "cannot name the initial position")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	body, err := json.Marshal(saveNameRequest{Moves: moves, Name: name})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(writeCtx, http.MethodPost, c.baseURL+"/api/moves", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to save opening name: %v", err)
		return nil, errors.NewUnavailableError(treeService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("save opening name failed: status=%d, body=%s", resp.StatusCode, string(msg))
		return nil, errors.NewUnavailableError(treeService, fmt.Errorf("status %d", resp.StatusCode))
	}

	var out saveNameResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode save response: %v", err)
		return nil, errors.NewUnavailableError(treeService, err)
	}
	if !out.Success || len(out.Moves) == 0 || string(out.Moves) == "null" {
		log.Warn("opening tree did not acknowledge the edit")
		return nil, errors.NewUnavailableError(treeService, fmt.Errorf("edit not acknowledged"))
	}

	tree, err := c.Load(ctx)
	if err != nil {
		return nil, errors.NewUnavailableError(treeService, err)
	}
	log.Info("saved opening name %q", name)
	return tree, nil
}

// Cached returns the cached tree, or nil when none is loaded.
func (c *TreeClient) Cached() *MoveNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree
}

// Available reports whether the last load succeeded.
func (c *TreeClient) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Invalidate drops the cache; the next Load starts from scratch.
func (c *TreeClient) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree = nil
	c.available = false
}

func (c *TreeClient) Status() TreeStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TreeStatus{
		Available: c.available,
		Loaded:    c.tree != nil,
		LoadedAt:  c.loadedAt,
		LastError: c.lastErr,
	}
}
