package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newProviderServer(t *testing.T, userInfo map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testManager(srv *httptest.Server, name string) *Manager {
	m := NewManager("http://api.local", Credentials{}, Credentials{})
	m.Register(&Provider{
		Name: name,
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
			RedirectURL:  "http://api.local/login/oauth2/code/" + name,
		},
		UserInfoURL: srv.URL + "/user",
	})
	return m
}

func TestExchange_GitHubWithoutEmail(t *testing.T) {
	srv := newProviderServer(t, map[string]string{"login": "octocat", "email": ""})
	m := testManager(srv, GitHub)

	p, err := m.Exchange(context.Background(), GitHub, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "octocat@github.local", p.Email)
	assert.Equal(t, "octocat", p.Username())
}

func TestExchange_Google(t *testing.T) {
	srv := newProviderServer(t, map[string]string{"email": "jane.doe@gmail.com", "name": "Jane"})
	m := testManager(srv, Google)

	p, err := m.Exchange(context.Background(), Google, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@gmail.com", p.Email)
	assert.Equal(t, "jane.doe", p.Username())
}

func TestExchange_GoogleWithoutEmail(t *testing.T) {
	srv := newProviderServer(t, map[string]string{"name": "Jane"})
	m := testManager(srv, Google)

	_, err := m.Exchange(context.Background(), Google, "good-code")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestExchange_BadCode(t *testing.T) {
	srv := newProviderServer(t, map[string]string{"login": "octocat"})
	m := testManager(srv, GitHub)

	_, err := m.Exchange(context.Background(), GitHub, "bad-code")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUnknownProvider(t *testing.T) {
	m := NewManager("http://api.local", Credentials{}, Credentials{})

	_, err := m.AuthCodeURL("facebook", "s")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = m.Exchange(context.Background(), "facebook", "c")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNewManager_AuthCodeURL(t *testing.T) {
	m := NewManager("http://api.local/", Credentials{ClientID: "gh"}, Credentials{ClientID: "gg"})

	raw, err := m.AuthCodeURL(GitHub, "state-123")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "http://api.local/login/oauth2/code/github", u.Query().Get("redirect_uri"))

	_, err = m.AuthCodeURL(Google, "s")
	require.NoError(t, err)
}
