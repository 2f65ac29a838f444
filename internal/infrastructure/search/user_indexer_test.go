package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

// fakeES answers like a minimal Elasticsearch node and records request bodies.
func fakeES(t *testing.T, handler func(r *http.Request, body string) (int, string)) *UserIndexer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		status, resp := handler(r, string(b))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUserIndexer(es, "users")
}

func TestIndexNeverWritesSecrets(t *testing.T) {
	var got string
	x := fakeES(t, func(r *http.Request, body string) (int, string) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/users/_doc/u1"))
		got = body
		return http.StatusCreated, `{"result":"created"}`
	})

	hash, tok := "hash", "reset"
	u := &entity.User{
		ID: "u1", Name: "Dana", Email: "dana@example.com",
		PasswordHash: &hash, ResetPasswordToken: &tok,
		Roles:     entity.RoleFlags{IsUser: true},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, x.Index(context.Background(), u))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "dana@example.com", doc["email"])
	assert.Equal(t, true, doc["is_user"])
	assert.NotContains(t, got, "hash")
	assert.NotContains(t, got, "reset")
}

func TestRemoveToleratesMissingDocument(t *testing.T) {
	x := fakeES(t, func(r *http.Request, _ string) (int, string) {
		assert.Equal(t, http.MethodDelete, r.Method)
		return http.StatusNotFound, `{"result":"not_found"}`
	})
	assert.NoError(t, x.Remove(context.Background(), "missing"))
}

func TestSearchParsesHits(t *testing.T) {
	x := fakeES(t, func(r *http.Request, body string) (int, string) {
		assert.Contains(t, r.URL.Path, "/users/_search")
		assert.Contains(t, body, `"size":10`)
		assert.Contains(t, body, `"query":"dana"`)
		return http.StatusOK, `{"hits":{"hits":[{"_id":"u1","_source":{"email":"dana@example.com"}}]}}`
	})

	res, err := x.Search(context.Background(), "dana", 500)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "u1", res[0]["id"])
	assert.Equal(t, "dana@example.com", res[0]["email"])
}

func TestSearchPropagatesErrorStatus(t *testing.T) {
	x := fakeES(t, func(*http.Request, string) (int, string) {
		return http.StatusInternalServerError, `{"error":"boom"}`
	})
	_, err := x.Search(context.Background(), "dana", 5)
	assert.Error(t, err)
}
