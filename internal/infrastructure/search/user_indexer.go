package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
	requestTimeout    = 3 * time.Second
)

// UserIndexer mirrors user projections into an Elasticsearch index for admin search.
// Credentials and reset tokens are never indexed.
type UserIndexer struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewUserIndexer(es *elasticsearch.Client, index string) *UserIndexer {
	return &UserIndexer{ES: es, IndexName: index}
}

// userDoc is the indexed projection.
type userDoc struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsAdmin    bool   `json:"is_admin"`
	IsBusiness bool   `json:"is_business"`
	IsUser     bool   `json:"is_user"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func newUserDoc(u *entity.User) userDoc {
	return userDoc{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		AvatarURL:  u.AvatarURL,
		IsAdmin:    u.Roles.IsAdmin,
		IsBusiness: u.Roles.IsBusiness,
		IsUser:     u.Roles.IsUser,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (x *UserIndexer) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(newUserDoc(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

func (x *UserIndexer) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.IndexName, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	// a missing document is already removed
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match query on email and name.
func (x *UserIndexer) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	b, err := json.Marshal(searchQuery(q, size))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode es response: %w", err)
	}
	return parsed.results(), nil
}

func searchQuery(q string, size int) map[string]any {
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r searchResponse) results() []map[string]any {
	out := make([]map[string]any, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		if h.Source == nil {
			h.Source = map[string]any{}
		}
		if _, ok := h.Source["id"]; !ok {
			h.Source["id"] = h.ID
		}
		out = append(out, h.Source)
	}
	return out
}
