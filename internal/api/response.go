package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/pgnbase/internal/errors"
	"github.com/vytor/pgnbase/internal/logger"
	"github.com/vytor/pgnbase/internal/models"
)

const (
	maxJSONBody   = 4 << 20
	maxImportBody = 64 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response: %v", err)
	}
}

func writeText(w http.ResponseWriter, contentType, filename, body string) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.AsTarget(err, &tooLarge) {
			return errors.NewBadRequestError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func readText(w http.ResponseWriter, r *http.Request, limit int64) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errors.NewBadRequestError("failed to read body: " + err.Error())
	}
	return string(data), nil
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func parseID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError("invalid game ID: " + idStr)
	}
	return id, nil
}

// parseFilter reads list filters from the query string.
func parseFilter(r *http.Request) (models.GameFilter, error) {
	q := r.URL.Query()
	f := models.GameFilter{
		SearchText: strings.TrimSpace(q.Get("search")),
		Opening:    q.Get("opening"),
		DateFrom:   q.Get("from"),
		DateTo:     q.Get("to"),
		Result:     q.Get("result"),
		Tags:       models.NormalizeTags(q["tag"]),
		OrderDir:   strings.ToUpper(q.Get("order")),
	}
	if f.OrderDir != "" && f.OrderDir != "ASC" && f.OrderDir != "DESC" {
		return f, errors.NewValidationError("order", "must be asc or desc")
	}

	var err error
	if f.Limit, err = queryInt(q.Get("limit")); err != nil {
		return f, errors.NewValidationError("limit", "must be a non-negative integer")
	}
	if f.Offset, err = queryInt(q.Get("offset")); err != nil {
		return f, errors.NewValidationError("offset", "must be a non-negative integer")
	}
	return f, nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	return n, nil
}
