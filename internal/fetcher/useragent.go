package fetcher

import (
	"math/rand/v2"
	"net/http"
)

// DefaultUserAgents is the desktop browser pool rotated across search requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// UserAgentPool hands out a random user agent per request.
type UserAgentPool struct {
	agents []string
	pick   func(n int) int
}

// NewUserAgentPool builds a pool from agents, falling back to DefaultUserAgents
// when agents is empty.
func NewUserAgentPool(agents []string) *UserAgentPool {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	return &UserAgentPool{
		agents: append([]string(nil), agents...),
		pick:   rand.IntN,
	}
}

// Next returns a user agent chosen uniformly at random.
func (p *UserAgentPool) Next() string {
	return p.agents[p.pick(len(p.agents))]
}

// BrowserHeaders returns the header set of a desktop browser arriving from
// the portal front page, with a rotated user agent.
func (p *UserAgentPool) BrowserHeaders(referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", p.Next())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Cache-Control", "max-age=0")
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
