package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func robotsServer(t *testing.T, handler http.HandlerFunc) *url.URL {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return base
}

func TestGateHonorsDisallowRules(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("User-agent: *\nDisallow: /private/\nDisallow: /admin\n"))
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/public/page", 0))
	assert.False(t, gate.Admit(base.String()+"/private/page", 0))
	assert.False(t, gate.Admit(base.String()+"/admin", 0))
}

func TestGateServerErrorAllowsAll(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/anything", 0))
}

func TestGateMissingRobotsAllowsAll(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/anything", 0))
}

func TestGateUnreachableServerAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/anything", 0))
}

func TestGateRejectsOtherHosts(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	assert.False(t, gate.Admit("https://other.example.org/page", 0))
}

func TestGateDepthCap(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 2, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/page", 2))
	assert.False(t, gate.Admit(base.String()+"/page", 3))
}

func TestGatePathComponentCap(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 3, 10, arbor.NewLogger())

	assert.True(t, gate.Admit(base.String()+"/a/b/c", 0))
	assert.False(t, gate.Admit(base.String()+"/a/b/c/d", 0))
}

func TestGateAllowedChecksQueryString(t *testing.T) {
	base := robotsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("User-agent: *\nDisallow: /search?\n"))
	})

	gate := NewGate(context.Background(), base, "testbot/1.0", 10, 10, arbor.NewLogger())

	withQuery, err := url.Parse(base.String() + "/search?q=budget")
	require.NoError(t, err)
	assert.False(t, gate.Allowed(withQuery))

	plain, err := url.Parse(base.String() + "/search")
	require.NoError(t, err)
	assert.True(t, gate.Allowed(plain))
}
