package ratelimit

import "golang.org/x/time/rate"

// Global is a process-wide token bucket placed in front of the per-client windows.
// A nil *Global admits everything.
type Global struct {
	lim *rate.Limiter
}

// NewGlobal returns nil when rps is not positive, disabling the guard.
func NewGlobal(rps float64, burst int) *Global {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Global{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (g *Global) Allow() bool {
	if g == nil {
		return true
	}
	return g.lim.Allow()
}
