package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/medpoint/clinic_auth/internal/logging"
)

// Entry is one auth decision written to the audit trail: logins and their
// failures, refreshes, logouts and RBAC denials.
type Entry struct {
	Event    string    `json:"event"`
	Username string    `json:"username,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Outcome  string    `json:"outcome"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

// Sink indexes audit entries into Elasticsearch and serves the admin-facing
// audit search.
type Sink struct {
	es    *elasticsearch.Client
	index string
}

func NewSink(cfg Config) (*Sink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	index := cfg.Index
	if index == "" {
		index = "auth_audit"
	}
	return &Sink{es: client, index: index}, nil
}

// Record indexes one entry. Auditing is best-effort: failures are logged
// and swallowed so an unavailable sink never blocks an auth flow.
func (s *Sink) Record(ctx context.Context, entry Entry) {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logging.FromContext(ctx).Error("audit_marshal_failed", "error", err)
		return
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(data),
		s.es.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Warn("audit_index_failed", "event", entry.Event, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Warn("audit_index_failed", "event", entry.Event, "status", res.Status())
	}
}

// Search returns audit entries matching the query (or the most recent ones
// when the query is empty), newest first.
func (s *Sink) Search(ctx context.Context, query string, from, size int) (int64, []Entry, error) {
	var match map[string]any
	if query == "" {
		match = map[string]any{"match_all": map[string]any{}}
	} else {
		match = map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"event", "username", "user_id", "outcome"},
			},
		}
	}
	body := map[string]any{
		"query": match,
		"sort":  []map[string]any{{"at": map[string]any{"order": "desc"}}},
		"from":  from,
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("audit search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	entries := make([]Entry, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		entries[i] = hit.Source
	}
	return r.Hits.Total.Value, entries, nil
}
