package git

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUserRepositories(t *testing.T) {
	var gotPath, gotUserAgent, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "alpha", "full_name": "octocat/alpha", "clone_url": "https://github.com/octocat/alpha.git"},
			{"id": 2, "name": "beta", "full_name": "octocat/beta", "clone_url": "https://github.com/octocat/beta.git"}
		]`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		BaseURL:   server.URL,
		UserAgent: "devfolio-test",
		Token:     "secret",
	})

	repos, err := client.ListUserRepositories("octocat")
	require.NoError(t, err)

	assert.Equal(t, "/users/octocat/repos?per_page=100", gotPath)
	assert.Equal(t, "devfolio-test", gotUserAgent)
	assert.Equal(t, "token secret", gotAuth)

	require.Len(t, repos, 2)
	assert.Equal(t, "alpha", repos[0].Name)
	assert.Equal(t, "https://github.com/octocat/alpha.git", repos[0].CloneURL)
}

func TestListUserRepositories_Defaults(t *testing.T) {
	client := NewClient(&ClientConfig{})
	assert.Equal(t, "https://api.github.com", client.config.BaseURL)
	assert.Equal(t, "devfolio", client.config.UserAgent)
}

func TestListUserRepositories_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{BaseURL: server.URL})

	_, err := client.ListUserRepositories("octocat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestListUserRepositories_NoTokenNoAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{BaseURL: server.URL})

	repos, err := client.ListUserRepositories("octocat")
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.Empty(t, gotAuth)
}
