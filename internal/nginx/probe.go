package nginx

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// ProbeResult describes one HTTP request to a site.
type ProbeResult struct {
	URL        string
	StatusCode int
	Server     string
	Location   string
	Elapsed    time.Duration
}

// OK reports a 2xx or 3xx answer.
func (p ProbeResult) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 400
}

var probeClient = &fasthttp.Client{
	Name:                "zappy",
	MaxResponseBodySize: 1 << 20,
}

// Probe sends one GET to url without following redirects. The deadline
// is the earlier of ctx's and timeout.
func Probe(ctx context.Context, url string, timeout time.Duration) (ProbeResult, error) {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return ProbeResult{URL: url}, context.DeadlineExceeded
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	start := time.Now()
	if err := probeClient.DoTimeout(req, resp, timeout); err != nil {
		return ProbeResult{URL: url, Elapsed: time.Since(start)}, fmt.Errorf("probe %s: %w", url, err)
	}
	return ProbeResult{
		URL:        url,
		StatusCode: resp.StatusCode(),
		Server:     string(resp.Header.Peek("Server")),
		Location:   string(resp.Header.Peek("Location")),
		Elapsed:    time.Since(start),
	}, nil
}

// SiteURL is the address Probe checks for a site.
func SiteURL(s Site) string {
	if s.SSL {
		return "https://" + s.Name + "/"
	}
	return "http://" + s.Name + "/"
}
