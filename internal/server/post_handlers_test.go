package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, authorToken := ts.createUserAndToken(t, "author")
	_, strangerToken := ts.createUserAndToken(t, "stranger")

	var postID string

	t.Run("create carries the scene position", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/posts", authorToken, map[string]any{
			"content":  "welcome to my room",
			"position": map[string]float64{"x": 1.5, "y": 0, "z": -2},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "welcome to my room", body["content"])
		position := body["position"].(map[string]any)
		assert.EqualValues(t, 1.5, position["x"])
		assert.EqualValues(t, -2, position["z"])
		assert.Equal(t, "author", body["author"].(map[string]any)["username"])
		postID = jsonNumberString(body["id"])
	})

	t.Run("create accepts an explicit character config", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/posts", authorToken, map[string]any{
			"content": "special outfit",
			"character_config": map[string]any{
				"variations": map[string]string{"head": "round"},
				"colors":     map[string]string{"head": "#ffb703"},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		character := body["character_config"].(map[string]any)
		assert.Equal(t, "round", character["variations"].(map[string]any)["head"])
	})

	t.Run("creating requires auth", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/posts", "", map[string]any{"content": "anon"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("the world is publicly browsable", func(t *testing.T) {
		resp := ts.request(t, http.MethodGet, "/api/posts", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer func() { _ = resp.Body.Close() }()
		var posts []map[string]any
		require.NoError(t, jsonDecode(resp, &posts))
		assert.Len(t, posts, 2)

		resp = ts.request(t, http.MethodGet, "/api/posts/"+postID, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("only the author may edit", func(t *testing.T) {
		resp := ts.request(t, http.MethodPut, "/api/posts/"+postID, strangerToken, map[string]any{
			"content": "hijacked",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.request(t, http.MethodPut, "/api/posts/"+postID, authorToken, map[string]any{
			"content": "edited",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "edited", body["content"])
	})

	t.Run("comments", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/posts/"+postID+"/comments", strangerToken, map[string]any{
			"content": "nice place",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		comment := decodeBody(t, resp)
		assert.Equal(t, "stranger", comment["user"].(map[string]any)["username"])

		resp = ts.request(t, http.MethodGet, "/api/posts/"+postID+"/comments", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer func() { _ = resp.Body.Close() }()
		var comments []map[string]any
		require.NoError(t, jsonDecode(resp, &comments))
		assert.Len(t, comments, 1)
	})

	t.Run("delete", func(t *testing.T) {
		resp := ts.request(t, http.MethodDelete, "/api/posts/"+postID, strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = ts.request(t, http.MethodDelete, "/api/posts/"+postID, authorToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ts.request(t, http.MethodGet, "/api/posts/"+postID, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMessageEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.createUserAndToken(t, "alice")
	bob, bobToken := ts.createUserAndToken(t, "bob")

	t.Run("send and read a thread", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/messages/"+jsonNumberString(float64(bob.ID)), aliceToken, map[string]any{
			"content": "hi bob",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "hi bob", body["content"])

		resp = ts.request(t, http.MethodGet, "/api/messages/"+jsonNumberString(float64(alice.ID)), bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer func() { _ = resp.Body.Close() }()
		var thread []map[string]any
		require.NoError(t, jsonDecode(resp, &thread))
		require.Len(t, thread, 1)
	})

	t.Run("conversation list", func(t *testing.T) {
		resp := ts.request(t, http.MethodGet, "/api/messages", bobToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer func() { _ = resp.Body.Close() }()
		var conversations []map[string]any
		require.NoError(t, jsonDecode(resp, &conversations))
		require.Len(t, conversations, 1)
		assert.Equal(t, "alice", conversations[0]["username"])
		assert.EqualValues(t, 0, conversations[0]["unread_count"], "reading the thread marked it read")
	})

	t.Run("messaging yourself is rejected", func(t *testing.T) {
		resp := ts.request(t, http.MethodPost, "/api/messages/"+jsonNumberString(float64(alice.ID)), aliceToken, map[string]any{
			"content": "dear diary",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
