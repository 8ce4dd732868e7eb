package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgREST_RequiresCredentials(t *testing.T) {
	_, err := NewPostgREST("", "key", 0)
	assert.Error(t, err)

	_, err = NewPostgREST("https://example.supabase.co", "", 0)
	assert.Error(t, err)
}

func TestPostgREST_Select(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/milestones", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "eq.g1", r.URL.Query().Get("goal_id"))
		assert.Equal(t, "sort_order.asc", r.URL.Query().Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"m1","goal_id":"g1","title":"a","completed":true,"sort_order":0}]`))
	}))
	defer srv.Close()

	p, err := NewPostgREST(srv.URL, "anon", time.Second)
	require.NoError(t, err)

	rows, err := p.Select(context.Background(), TableMilestones, Query{
		Filters: []Filter{Eq("goal_id", "g1")},
		Order:   []Order{Asc("sort_order")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "m1", rows[0]["id"])
	assert.Equal(t, true, rows[0]["completed"])
}

func TestPostgREST_InsertAndUpdateAskForRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		switch r.Method {
		case http.MethodPost:
			var rows []map[string]any
			require.NoError(t, json.Unmarshal(body, &rows))
			assert.Equal(t, []map[string]any{{"title": "new"}}, rows)
			_, _ = w.Write([]byte(`[{"id":"t1","title":"new"}]`))
		case http.MethodPatch:
			assert.Equal(t, "eq.t1", r.URL.Query().Get("id"))
			assert.JSONEq(t, `{"completed":true}`, string(body))
			_, _ = w.Write([]byte(`[{"id":"t1","title":"new","completed":true}]`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	p, err := NewPostgREST(srv.URL+"/", "anon", 0)
	require.NoError(t, err)
	ctx := context.Background()

	rows, err := p.Insert(ctx, TableTasks, Row{"title": "new"})
	require.NoError(t, err)
	assert.Equal(t, "t1", rows[0]["id"])

	rows, err = p.Update(ctx, TableTasks, Row{"completed": true}, Eq("id", "t1"))
	require.NoError(t, err)
	assert.Equal(t, true, rows[0]["completed"])
}

func TestPostgREST_Delete(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p, err := NewPostgREST(srv.URL, "anon", 0)
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), TableMilestones, Eq("goal_id", "g1")))
	assert.Equal(t, "goal_id=eq.g1", gotQuery)

	assert.Error(t, p.Delete(context.Background(), TableMilestones))
}

func TestPostgREST_APIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{
			name:    "json body",
			body:    `{"code":"42P01","message":"relation \"public.tasks\" does not exist","details":null,"hint":null}`,
			code:    "42P01",
			message: `relation "public.tasks" does not exist`,
		},
		{
			name:    "plain body",
			body:    "gateway exploded",
			message: "gateway exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewPostgREST(srv.URL, "anon", 0)
			require.NoError(t, err)

			_, err = p.Select(context.Background(), TableTasks, Query{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestPostgREST_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p, err := NewPostgREST(srv.URL, "anon", 20*time.Millisecond)
	require.NoError(t, err)

	_, err = p.Select(context.Background(), TableTasks, Query{})
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "abc", formatValue("abc"))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "3", formatValue(3))
	assert.Equal(t, "null", formatValue(nil))
}
