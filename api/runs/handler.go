package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/runlog"
)

// Querier is the read side of a run log.
type Querier interface {
	Query(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error)
}

// NewHandler returns an HTTP handler exposing recorded runs via GET /api/runs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
// Supported filters: start and end (RFC3339), source and limit.
func NewHandler(store Querier, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.RunRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseQuery(r *http.Request) (runlog.Query, error) {
	v := r.URL.Query()
	q := runlog.Query{}
	if s := v.Get("source"); s != "" {
		src, ok := model.ParseSource(s)
		if !ok {
			return q, fmt.Errorf("unknown source %q", s)
		}
		q.Source = src.String()
	}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}
	return q, nil
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error)

func (f QuerierFunc) Query(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	return f(ctx, q)
}
