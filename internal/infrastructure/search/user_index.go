package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/beckelmw/sms-question-poker/internal/application"
	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

const usersMapping = `{
  "mappings": {
    "properties": {
      "user_id":    {"type": "keyword"},
      "username":   {"type": "search_as_you_type"},
      "first_name": {"type": "search_as_you_type"},
      "last_name":  {"type": "search_as_you_type"},
      "created_at": {"type": "date"}
    }
  }
}`

// userDoc is what gets stored per user. Credentials never leave the database.
type userDoc struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
}

type esError struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// UserIndex keeps the user directory in Elasticsearch.
type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithBody(strings.NewReader(usersMapping)),
		x.es.Indices.Create.WithContext(c),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

// Index upserts u under its id.
func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(userDoc{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Index(x.index, bytes.NewReader(b),
		x.es.Index.WithDocumentID(u.ID),
		x.es.Index.WithRefresh("false"),
		x.es.Index.WithContext(c),
	)
	if err != nil {
		return fmt.Errorf("index user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("index user", res.Status(), res.Body)
	}
	return nil
}

// Search runs a prefix-friendly multi_match over names and username.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]application.DirectoryEntry, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query": q,
				"type":  "bool_prefix",
				"fields": []string{
					"username^2", "username._2gram", "username._3gram",
					"first_name", "first_name._2gram",
					"last_name", "last_name._2gram",
				},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, responseError("search users", res.Status(), res.Body)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]application.DirectoryEntry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, application.DirectoryEntry{
			UserID:    h.Source.UserID,
			Username:  h.Source.Username,
			FirstName: h.Source.FirstName,
			LastName:  h.Source.LastName,
		})
	}
	return out, nil
}

func responseError(op, status string, body io.Reader) error {
	var e esError
	if err := json.NewDecoder(body).Decode(&e); err == nil && e.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, e.Error.Type, e.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, status)
}

var _ application.UserIndex = (*UserIndex)(nil)
