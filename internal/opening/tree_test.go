package opening_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/opening"
)

func strPtr(s string) *string { return &s }

// sampleTree: e4 (named, no link) -> c5 (named + linked) -> Nf3 (unnamed) -> d6 (named + linked).
func sampleTree() *opening.MoveNode {
	return &opening.MoveNode{
		Children: []*opening.MoveNode{
			{
				Move: "e4",
				Name: strPtr("King's Pawn"),
				Children: []*opening.MoveNode{
					{
						Move: "c5",
						Name: strPtr("Sicilian"),
						Link: strPtr("https://example.com/sicilian"),
						Children: []*opening.MoveNode{
							{
								Move: "Nf3",
								Children: []*opening.MoveNode{
									{Move: "d6", Name: strPtr("Sicilian Main"), Link: strPtr("https://example.com/main")},
								},
							},
						},
					},
					{Move: "e5", Name: strPtr("Open Game")},
				},
			},
		},
	}
}

func TestTraverse_WhitelistAndDeepestWins(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		name   string
		moves  []string
		length int
		want   string
		depth  int
	}{
		{"named without link is ignored", []string{"e4"}, 1, "", 0},
		{"named and linked", []string{"e4", "c5"}, 2, "Sicilian", 2},
		{"passes through unnamed node", []string{"e4", "c5", "Nf3"}, 3, "Sicilian", 2},
		{"deeper whitelisted node wins", []string{"e4", "c5", "Nf3", "d6"}, 4, "Sicilian Main", 4},
		{"length limits the walk", []string{"e4", "c5", "Nf3", "d6"}, 3, "Sicilian", 2},
		{"leaves the tree", []string{"e4", "c5", "Nc3", "d6"}, 4, "Sicilian", 2},
		{"sibling without link", []string{"e4", "e5"}, 2, "", 0},
		{"unknown first move", []string{"d4"}, 1, "", 0},
		{"zero length", []string{"e4", "c5"}, 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := opening.Traverse(tree, tt.moves, tt.length)
			if tt.want == "" {
				assert.Nil(t, hit)
				return
			}
			require.NotNil(t, hit)
			assert.Equal(t, tt.want, hit.Name)
			assert.Equal(t, tt.depth, hit.Depth)
		})
	}
}

func TestTraverse_NilTree(t *testing.T) {
	assert.Nil(t, opening.Traverse(nil, []string{"e4"}, 1))
}

func TestTreeClient_LoadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/moves/slim", r.URL.Path)
		_ = json.NewEncoder(w).Encode(sampleTree())
	}))
	defer srv.Close()

	c := opening.NewTreeClient(srv.URL+"/", time.Second)
	tree, err := c.Load(context.Background())

	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.True(t, c.Available())
	assert.Same(t, tree, c.Cached())
	assert.True(t, c.Status().Loaded)
}

func TestTreeClient_LoadFailureIsSoft(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(sampleTree())
	}))
	defer srv.Close()

	c := opening.NewTreeClient(srv.URL, time.Second)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	tree, err := c.Load(context.Background())
	assert.Error(t, err)
	assert.Nil(t, tree)
	assert.Nil(t, c.Cached(), "failed load clears the cache")
	assert.False(t, c.Available())
	assert.Contains(t, c.Status().LastError, "502")
}

func TestTreeClient_LoadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := opening.NewTreeClient(srv.URL, 50*time.Millisecond)
	_, err := c.Load(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Available())
}

func TestTreeClient_SaveNameRefetchesSlimTree(t *testing.T) {
	var (
		slimCalls atomic.Int32
		mu        sync.Mutex
	)
	var posted struct {
		Moves []string `json:"moves"`
		Name  string   `json:"name"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/moves/slim", func(w http.ResponseWriter, r *http.Request) {
		slimCalls.Add(1)
		tree := sampleTree()
		if slimCalls.Load() > 1 {
			mu.Lock()
			e4 := tree.Children[0]
			e4.Link = strPtr("https://example.com/e4")
			e4.Name = strPtr(posted.Name)
			mu.Unlock()
		}
		_ = json.NewEncoder(w).Encode(tree)
	})
	mux.HandleFunc("/api/moves", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		mu.Lock()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		mu.Unlock()
		// the write endpoint answers with the full tree, extra fields included
		_, _ = w.Write([]byte(`{"success":true,"moves":{"move":"","tts":"x","children":[]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := opening.NewTreeClient(srv.URL, time.Second)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	tree, err := c.SaveName(context.Background(), []string{"e4"}, "  King's Pawn Opening ")
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"e4"}, posted.Moves)
	assert.Equal(t, "King's Pawn Opening", posted.Name)
	mu.Unlock()
	assert.EqualValues(t, 2, slimCalls.Load())
	require.Len(t, tree.Children, 1)
	hit := opening.Traverse(c.Cached(), []string{"e4"}, 1)
	require.NotNil(t, hit)
	assert.Equal(t, "King's Pawn Opening", hit.Name)
}

func TestTreeClient_SaveNameFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}},
		{"not acknowledged", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		}},
		{"missing tree", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"moves":null}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := opening.NewTreeClient(srv.URL, time.Second)
			_, err := c.SaveName(context.Background(), []string{"e4"}, "x")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUnavailable))
		})
	}
}

func TestTreeClient_SaveNameValidation(t *testing.T) {
	c := opening.NewTreeClient("http://127.0.0.1:1", time.Second)

	_, err := c.SaveName(context.Background(), nil, "x")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = c.SaveName(context.Background(), []string{"e4"}, "   ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestTreeClient_Invalidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleTree())
	}))
	defer srv.Close()

	c := opening.NewTreeClient(srv.URL, time.Second)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	c.Invalidate()
	assert.Nil(t, c.Cached())
	assert.False(t, c.Available())
}
