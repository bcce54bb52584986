// Package gate decides whether an inbound request may reach the API. Every check is a
// pure function of a Request; the HTTP layer builds the Request and renders the Decision.
package gate

import (
	"net/http"
)

// Request is the subset of an HTTP request the checks look at.
type Request struct {
	Path   string
	Method string
	Header http.Header
}

// Decision is the verdict of a single check or of the whole gate.
type Decision struct {
	Admit  bool
	Status int
	Check  string
	Reason string
	// Allow lists permitted methods on a 405.
	Allow string
}

// Check is one admission step. It may only deny; admitting passes control to the next step.
type Check interface {
	Name() string
	Evaluate(req Request) Decision
}

// Route is one declared API endpoint.
type Route struct {
	Method      string
	Path        string
	ContentType string
	Class       string
	Metered     bool
}

// Options configures the origin and user-agent checks.
type Options struct {
	AllowedOrigins     []string
	AllowMissingOrigin bool
	RequireBrowserUA   bool
	BotSignatures      []string
	BrowserMarkers     []string
	UtilityPaths       []string
}

// Gate runs the path allow-list, then the remaining checks in order, stopping at the first denial.
type Gate struct {
	paths  *PathCheck
	checks []Check
}

func New(opts Options, routes []Route) *Gate {
	return &Gate{
		paths: NewPathCheck(routes, opts.UtilityPaths),
		checks: []Check{
			NewOriginCheck(opts.AllowedOrigins, opts.AllowMissingOrigin),
			NewUserAgentCheck(opts.BotSignatures, opts.BrowserMarkers, opts.RequireBrowserUA),
			NewRouteCheck(routes),
		},
	}
}

// Evaluate admits utility paths right after the path check; API paths go through every check.
func (g *Gate) Evaluate(req Request) Decision {
	if d := g.paths.Evaluate(req); !d.Admit {
		return d
	}
	if g.paths.Exempt(req.Path) {
		return admit("path")
	}
	for _, c := range g.checks {
		if d := c.Evaluate(req); !d.Admit {
			return d
		}
	}
	return admit("gate")
}

func admit(check string) Decision {
	return Decision{Admit: true, Status: http.StatusOK, Check: check}
}

func deny(check string, status int, reason string) Decision {
	return Decision{Admit: false, Status: status, Check: check, Reason: reason}
}
