// Package probe checks portal reachability over plain HTTP before the
// browser ever launches. A dead portal fails the run in seconds instead of
// burning a browser session and a navigation timeout per shop.
package probe

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// Probe fetches the portal landing page once and verifies it answers.
type Probe struct {
	target    string
	collector *colly.Collector
}

// New builds a probe against the portal base URL.
func New(portalURL, userAgent string, timeout time.Duration) (*Probe, error) {
	parsed, err := url.Parse(portalURL)
	if err != nil {
		return nil, fmt.Errorf("parse portal url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("portal url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(userAgent),
	)
	collector.SetRequestTimeout(timeout)

	return &Probe{
		target:    portalURL,
		collector: collector,
	}, nil
}

// WithTransport swaps the underlying HTTP transport; tests use it to serve
// canned responses.
func (p *Probe) WithTransport(transport http.RoundTripper) {
	p.collector.WithTransport(transport)
}

// Check fetches the portal landing page and reports whether it served a
// non-empty document. The portal's JSF stack answers 200 with a rendered
// page even when idle, so anything else means the run would go nowhere.
func (p *Probe) Check() error {
	var (
		mu       sync.Mutex
		status   int
		bodySize int
		reqErr   error
	)

	p.collector.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		status = r.StatusCode
		bodySize = len(r.Body)
	})
	p.collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := p.collector.Visit(p.target); err != nil {
		return fmt.Errorf("portal unreachable: %w", err)
	}
	p.collector.Wait()

	mu.Lock()
	defer mu.Unlock()
	if reqErr != nil {
		return fmt.Errorf("portal unreachable: %w", reqErr)
	}
	if status != http.StatusOK {
		return fmt.Errorf("portal answered status %d", status)
	}
	if bodySize == 0 {
		return fmt.Errorf("portal answered an empty document")
	}
	return nil
}
