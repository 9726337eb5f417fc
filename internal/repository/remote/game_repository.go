// Package remote stores games on another pgnbase server through its JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
	"github.com/vytor/pgnbase/internal/repository"
)

const service = "remote game store"

type gameRepository struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewGameRepository creates a repository backed by the server at baseURL. token is sent as a
// bearer token when non-empty.
func NewGameRepository(baseURL, token string, timeout time.Duration) repository.GameRepository {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &gameRepository{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type listResponse struct {
	Games []models.GameRecord `json:"games"`
	Total int                 `json:"total"`
}

type idsResponse struct {
	IDs []int64 `json:"ids"`
}

// do sends a request and decodes a JSON response into out, if out is non-nil.
func (r *gameRepository) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	log := logger.FromContext(ctx).WithPrefix("remote")

	target := r.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Error("%s %s failed: %v", method, path, err)
		return errors.NewUnavailableError(service, err)
	}
	defer resp.Body.Close()
	log.Debug("%s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return repository.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewUnavailableError(service, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// decodeError turns a non-2xx response into an AppError carrying the remote status.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || eb.Error.Code == "" {
		return errors.NewUnavailableError(service, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}
	return &errors.AppError{Code: eb.Error.Code, Message: eb.Error.Message, Status: resp.StatusCode}
}

func gamePath(id int64) string {
	return "/api/games/" + strconv.FormatInt(id, 10)
}

func filterQuery(f models.GameFilter) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("search", f.SearchText)
	set("opening", f.Opening)
	set("from", f.DateFrom)
	set("to", f.DateTo)
	set("result", f.Result)
	set("order", f.OrderDir)
	for _, t := range f.Tags {
		q.Add("tag", t)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.GameRecord, error) {
	var game models.GameRecord
	if err := r.do(ctx, http.MethodGet, gamePath(id), nil, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) list(ctx context.Context, filter models.GameFilter) (*listResponse, error) {
	var resp listResponse
	if err := r.do(ctx, http.MethodGet, "/api/games", filterQuery(filter), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.GameRecord, error) {
	resp, err := r.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	if resp.Games == nil {
		return []models.GameRecord{}, nil
	}
	return resp.Games, nil
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	filter.Limit, filter.Offset = 1, 0
	resp, err := r.list(ctx, filter)
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (r *gameRepository) IDs(ctx context.Context) ([]int64, error) {
	var resp idsResponse
	if err := r.do(ctx, http.MethodGet, "/api/games/ids", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

func (r *gameRepository) Insert(ctx context.Context, game models.GameRecord) (int64, error) {
	game.ApplyDefaults()
	var created models.GameRecord
	if err := r.do(ctx, http.MethodPost, "/api/games", nil, game, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (r *gameRepository) InsertBatch(ctx context.Context, games []models.GameRecord) ([]int64, error) {
	if len(games) == 0 {
		return []int64{}, nil
	}
	var summary models.ImportSummary
	in := map[string]any{"games": games}
	if err := r.do(ctx, http.MethodPost, "/api/games/import", nil, in, &summary); err != nil {
		return nil, err
	}
	return summary.IDs, nil
}

func (r *gameRepository) Update(ctx context.Context, game models.GameRecord) error {
	game.Tags = models.NormalizeTags(game.Tags)
	return r.do(ctx, http.MethodPut, gamePath(game.ID), nil, game, nil)
}

// UpdateOpening has no dedicated endpoint; the record is read and written back whole.
func (r *gameRepository) UpdateOpening(ctx context.Context, id int64, ecoCode, openingName string) error {
	game, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	game.ECO = ecoCode
	game.Opening = openingName
	return r.Update(ctx, *game)
}

func (r *gameRepository) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, http.MethodDelete, gamePath(id), nil, nil, nil)
}

func (r *gameRepository) Clear(ctx context.Context) error {
	return r.do(ctx, http.MethodDelete, "/api/games", nil, nil, nil)
}

func (r *gameRepository) Openings(ctx context.Context) ([]string, error) {
	var resp struct {
		Openings []string `json:"openings"`
	}
	if err := r.do(ctx, http.MethodGet, "/api/games/openings", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Openings, nil
}

func (r *gameRepository) Tags(ctx context.Context) ([]string, error) {
	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := r.do(ctx, http.MethodGet, "/api/games/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}

func (r *gameRepository) UsedBytes(ctx context.Context) (int64, error) {
	var info models.StorageInfo
	if err := r.do(ctx, http.MethodGet, "/api/storage", nil, nil, &info); err != nil {
		return 0, err
	}
	return info.UsedBytes, nil
}

// PingContext checks that the remote server is up.
func (r *gameRepository) PingContext(ctx context.Context) error {
	return r.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
