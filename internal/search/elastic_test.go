package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

func newTestClient(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*Client, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"8.19.0"}}`))
			return
		}
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), &Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return c, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestSearch(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"v-1","_source":{"variant_name":"S - Red"}}]}}`))
	})

	res, err := c.Search(context.Background(), "variants", map[string]any{
		"query": map[string]any{"term": map[string]any{"product_id": "p-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Hits.Total.Value)
	require.Len(t, res.Hits.Hits, 1)
	assert.Equal(t, "v-1", res.Hits.Hits[0].ID)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(res.Hits.Hits[0].Source, &doc))
	assert.Equal(t, "S - Red", doc["variant_name"])

	last := requests()[len(requests())-1]
	assert.Equal(t, "/variants/_search", last.Path)
	assert.Contains(t, last.Body, `"product_id":"p-1"`)
}

func TestIndexAndDelete(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	ctx := context.Background()

	require.NoError(t, c.Index(ctx, "variants", "v-1", map[string]any{"variant_name": "S - Red"}))
	require.NoError(t, c.Delete(ctx, "variants", "v-404"))

	reqs := requests()
	assert.Equal(t, "/variants/_doc/v-1", reqs[len(reqs)-2].Path)
	assert.Equal(t, http.MethodDelete, reqs[len(reqs)-1].Method)
}

func TestDeleteByQuery(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deleted":3}`))
	})

	err := c.DeleteByQuery(context.Background(), "variants", map[string]any{
		"query": map[string]any{"term": map[string]any{"product_id": "p-1"}},
	})
	require.NoError(t, err)

	last := requests()[len(requests())-1]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/variants/_delete_by_query", last.Path)
	assert.JSONEq(t, `{"query":{"term":{"product_id":"p-1"}}}`, last.Body)
}

func TestCreateIndex_Existing(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.CreateIndex(context.Background(), "variants", `{}`))
	for _, r := range requests() {
		assert.NotEqual(t, http.MethodPut, r.Method, "index must not be recreated")
	}
}

func TestSearch_Error(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"parsing_exception"}`))
	})

	_, err := c.Search(context.Background(), "variants", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception")
}
