package gate

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var testRoutes = []Route{
	{Method: http.MethodGet, Path: "/api/questions", Class: "read", Metered: true},
	{Method: http.MethodGet, Path: "/api/scores", Class: "read", Metered: true},
	{Method: http.MethodPost, Path: "/api/scores", ContentType: "application/json", Class: "write", Metered: true},
	{Method: http.MethodGet, Path: "/api/stats", Class: "read"},
}

func testGate(mutate func(*Options)) *Gate {
	opts := Options{
		AllowedOrigins:     []string{"https://math-worksheet-vue.vercel.app", "http://localhost:5173"},
		AllowMissingOrigin: true,
		RequireBrowserUA:   true,
		BotSignatures:      []string{"bot", "crawler", "curl", "python-requests"},
		BrowserMarkers:     []string{"chrome", "safari", "firefox"},
		UtilityPaths:       []string{"/", "/health"},
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts, testRoutes)
}

func request(method, path string, headers map[string]string) Request {
	h := http.Header{}
	h.Set("User-Agent", chromeUA)
	for k, v := range headers {
		h.Set(k, v)
	}
	return Request{Path: path, Method: method, Header: h}
}

func TestGateAdmitsBrowserFromAllowedOrigin(t *testing.T) {
	g := testGate(nil)
	d := g.Evaluate(request(http.MethodGet, "/api/questions", map[string]string{
		"Origin": "https://math-worksheet-vue.vercel.app",
	}))
	assert.True(t, d.Admit, d.Reason)
}

func TestGateDeniesUnknownPathWith404(t *testing.T) {
	g := testGate(nil)
	for _, path := range []string{"/etc/passwd", "/api/unknown", "/api/scores/../admin"} {
		d := g.Evaluate(request(http.MethodGet, path, nil))
		assert.False(t, d.Admit, path)
		assert.Equal(t, http.StatusNotFound, d.Status, path)
		assert.Equal(t, "path", d.Check, path)
	}
}

func TestGateUtilityPathsSkipOtherChecks(t *testing.T) {
	g := testGate(func(o *Options) { o.AllowMissingOrigin = false })
	d := g.Evaluate(Request{Path: "/health", Method: http.MethodGet, Header: http.Header{
		"User-Agent": []string{"curl/8.0"},
	}})
	assert.True(t, d.Admit)
}

func TestGateOriginRules(t *testing.T) {
	cases := []struct {
		name         string
		headers      map[string]string
		allowMissing bool
		admit        bool
	}{
		{name: "exact origin", headers: map[string]string{"Origin": "http://localhost:5173"}, admit: true},
		{name: "referer with path", headers: map[string]string{"Referer": "https://math-worksheet-vue.vercel.app/quiz?x=1"}, admit: true},
		{name: "foreign origin", headers: map[string]string{"Origin": "https://evil.example"}, allowMissing: true},
		{name: "lookalike prefix", headers: map[string]string{"Origin": "https://math-worksheet-vue.vercel.app.evil.example"}, allowMissing: true},
		{name: "origin wins over referer", headers: map[string]string{"Origin": "https://evil.example", "Referer": "http://localhost:5173/"}, allowMissing: true},
		{name: "missing allowed", allowMissing: true, admit: true},
		{name: "missing denied", allowMissing: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := testGate(func(o *Options) { o.AllowMissingOrigin = tc.allowMissing })
			d := g.Evaluate(request(http.MethodGet, "/api/scores", tc.headers))
			assert.Equal(t, tc.admit, d.Admit, d.Reason)
			if !tc.admit {
				assert.Equal(t, http.StatusForbidden, d.Status)
				assert.Equal(t, "origin", d.Check)
			}
		})
	}
}

func TestGateUserAgentRules(t *testing.T) {
	cases := []struct {
		name           string
		ua             string
		requireBrowser bool
		admit          bool
	}{
		{name: "browser", ua: chromeUA, requireBrowser: true, admit: true},
		{name: "bot signature", ua: "Mozilla/5.0 (compatible; Googlebot/2.1)", requireBrowser: true},
		{name: "signature case insensitive", ua: "My-CRAWLER 1.0", requireBrowser: false},
		{name: "curl", ua: "curl/8.4.0", requireBrowser: false},
		{name: "not browser shaped", ua: "MyApp/1.0", requireBrowser: true},
		{name: "non browser allowed when shape not required", ua: "MyApp/1.0", requireBrowser: false, admit: true},
		{name: "empty ua with shape required", ua: "", requireBrowser: true},
		{name: "empty ua without shape", ua: "", requireBrowser: false, admit: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := testGate(func(o *Options) { o.RequireBrowserUA = tc.requireBrowser })
			req := request(http.MethodGet, "/api/questions", nil)
			req.Header.Set("User-Agent", tc.ua)
			if tc.ua == "" {
				req.Header.Del("User-Agent")
			}
			d := g.Evaluate(req)
			assert.Equal(t, tc.admit, d.Admit, d.Reason)
			if !tc.admit {
				assert.Equal(t, http.StatusForbidden, d.Status)
				assert.Equal(t, "user-agent", d.Check)
			}
		})
	}
}

func TestGateRouteRules(t *testing.T) {
	g := testGate(nil)

	d := g.Evaluate(request(http.MethodDelete, "/api/scores", nil))
	require.False(t, d.Admit)
	assert.Equal(t, http.StatusMethodNotAllowed, d.Status)
	assert.Equal(t, "GET, OPTIONS, POST", d.Allow)

	d = g.Evaluate(request(http.MethodPost, "/api/scores", map[string]string{"Content-Type": "text/plain"}))
	require.False(t, d.Admit)
	assert.Equal(t, http.StatusForbidden, d.Status)
	assert.Equal(t, "route", d.Check)

	d = g.Evaluate(request(http.MethodPost, "/api/scores", map[string]string{"Content-Type": "application/json; charset=utf-8"}))
	assert.True(t, d.Admit, d.Reason)

	d = g.Evaluate(request(http.MethodOptions, "/api/scores", map[string]string{"Origin": "http://localhost:5173"}))
	assert.True(t, d.Admit, d.Reason)
}

func TestGateShortCircuitsInOrder(t *testing.T) {
	g := testGate(nil)
	// bad origin, bot agent and wrong method: origin is reported first
	req := request(http.MethodDelete, "/api/scores", map[string]string{"Origin": "https://evil.example"})
	req.Header.Set("User-Agent", "curl/8.0")
	d := g.Evaluate(req)
	assert.Equal(t, "origin", d.Check)

	req.Header.Set("Origin", "http://localhost:5173")
	d = g.Evaluate(req)
	assert.Equal(t, "user-agent", d.Check)

	req.Header.Set("User-Agent", chromeUA)
	d = g.Evaluate(req)
	assert.Equal(t, "route", d.Check)
}

func TestGateIsPure(t *testing.T) {
	g := testGate(nil)
	req := request(http.MethodGet, "/api/questions", map[string]string{"Origin": "https://evil.example"})
	first := g.Evaluate(req)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, g.Evaluate(req))
	}
}
