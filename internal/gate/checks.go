package gate

import (
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
)

// PathCheck denies anything outside the declared routes and utility paths.
type PathCheck struct {
	api     map[string]struct{}
	utility map[string]struct{}
}

func NewPathCheck(routes []Route, utility []string) *PathCheck {
	c := &PathCheck{api: make(map[string]struct{}), utility: make(map[string]struct{})}
	for _, r := range routes {
		c.api[r.Path] = struct{}{}
	}
	for _, p := range utility {
		c.utility[p] = struct{}{}
	}
	return c
}

func (c *PathCheck) Name() string { return "path" }

func (c *PathCheck) Evaluate(req Request) Decision {
	if _, ok := c.api[req.Path]; ok {
		return admit(c.Name())
	}
	if c.Exempt(req.Path) {
		return admit(c.Name())
	}
	return deny(c.Name(), http.StatusNotFound, fmt.Sprintf("path %q is not served", req.Path))
}

// Exempt reports whether path skips the remaining checks.
func (c *PathCheck) Exempt(path string) bool {
	_, ok := c.utility[path]
	return ok
}

// OriginCheck admits requests whose Origin (or Referer, when Origin is absent) matches an
// allowed origin exactly or as a prefix ending at a path boundary.
type OriginCheck struct {
	allowed      []string
	allowMissing bool
}

func NewOriginCheck(allowed []string, allowMissing bool) *OriginCheck {
	normalized := make([]string, 0, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			normalized = append(normalized, o)
		}
	}
	return &OriginCheck{allowed: normalized, allowMissing: allowMissing}
}

func (c *OriginCheck) Name() string { return "origin" }

func (c *OriginCheck) Evaluate(req Request) Decision {
	source := strings.TrimSpace(req.Header.Get("Origin"))
	if source == "" {
		source = strings.TrimSpace(req.Header.Get("Referer"))
	}
	if source == "" {
		if c.allowMissing {
			return admit(c.Name())
		}
		return deny(c.Name(), http.StatusForbidden, "request carries neither Origin nor Referer")
	}
	if c.Matches(source) {
		return admit(c.Name())
	}
	return deny(c.Name(), http.StatusForbidden, fmt.Sprintf("origin %q is not allowed", source))
}

// Matches reports whether value equals an allowed origin or extends one with a path,
// query or fragment.
func (c *OriginCheck) Matches(value string) bool {
	for _, o := range c.allowed {
		if value == o {
			return true
		}
		if strings.HasPrefix(value, o) {
			switch value[len(o)] {
			case '/', '?', '#':
				return true
			}
		}
	}
	return false
}

// UserAgentCheck is a best-effort filter for automated clients. It is not a security boundary.
type UserAgentCheck struct {
	signatures     []string
	markers        []string
	requireBrowser bool
}

func NewUserAgentCheck(signatures, markers []string, requireBrowser bool) *UserAgentCheck {
	return &UserAgentCheck{
		signatures:     lowerAll(signatures),
		markers:        lowerAll(markers),
		requireBrowser: requireBrowser,
	}
}

func (c *UserAgentCheck) Name() string { return "user-agent" }

func (c *UserAgentCheck) Evaluate(req Request) Decision {
	ua := strings.ToLower(strings.TrimSpace(req.Header.Get("User-Agent")))
	for _, sig := range c.signatures {
		if ua != "" && strings.Contains(ua, sig) {
			return deny(c.Name(), http.StatusForbidden, fmt.Sprintf("user agent matches %q", sig))
		}
	}
	if !c.requireBrowser {
		return admit(c.Name())
	}
	if ua == "" {
		return deny(c.Name(), http.StatusForbidden, "missing user agent")
	}
	if !c.looksLikeBrowser(ua) {
		return deny(c.Name(), http.StatusForbidden, "user agent does not look like a browser")
	}
	return admit(c.Name())
}

func (c *UserAgentCheck) looksLikeBrowser(ua string) bool {
	if !strings.HasPrefix(ua, "mozilla/") {
		return false
	}
	if len(c.markers) == 0 {
		return true
	}
	for _, m := range c.markers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// RouteCheck enforces the method and payload type declared for each path.
type RouteCheck struct {
	byPath map[string][]Route
}

func NewRouteCheck(routes []Route) *RouteCheck {
	c := &RouteCheck{byPath: make(map[string][]Route)}
	for _, r := range routes {
		c.byPath[r.Path] = append(c.byPath[r.Path], r)
	}
	return c
}

func (c *RouteCheck) Name() string { return "route" }

func (c *RouteCheck) Evaluate(req Request) Decision {
	routes, ok := c.byPath[req.Path]
	if !ok {
		return deny(c.Name(), http.StatusNotFound, fmt.Sprintf("path %q is not served", req.Path))
	}
	// CORS preflight is answered downstream
	if req.Method == http.MethodOptions {
		return admit(c.Name())
	}

	for _, r := range routes {
		if r.Method != req.Method {
			continue
		}
		if r.ContentType == "" {
			return admit(c.Name())
		}
		mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
		if err != nil || !strings.EqualFold(mediaType, r.ContentType) {
			return deny(c.Name(), http.StatusForbidden,
				fmt.Sprintf("%s %s requires %s, got %q", r.Method, r.Path, r.ContentType, req.Header.Get("Content-Type")))
		}
		return admit(c.Name())
	}

	d := deny(c.Name(), http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", req.Method, req.Path))
	d.Allow = allowedMethods(routes)
	return d
}

func allowedMethods(routes []Route) string {
	methods := make([]string, 0, len(routes)+1)
	for _, r := range routes {
		methods = append(methods, r.Method)
	}
	methods = append(methods, http.MethodOptions)
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
