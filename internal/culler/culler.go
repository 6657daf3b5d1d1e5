package culler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/linksaver/internal/model"
)

// Status represents the health status of a link.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Defaults used when Options leaves a field zero.
const (
	DefaultConcurrency = 10
	DefaultTimeout     = 10 * time.Second
	maxRedirects       = 10
)

// Result holds the check result for a single link.
type Result struct {
	Node       model.Node
	Status     Status
	StatusCode int    // 0 if the connection failed
	Error      string // reason for unreachable links
}

// ProgressFunc is called after each link is checked.
type ProgressFunc func(completed, total int)

// Options configures a check run.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	// ExcludeDomains lists hosts whose 404s mean "possibly private" rather
	// than dead. Subdomains match too.
	ExcludeDomains []string
	OnProgress     ProgressFunc
	Client         *http.Client
}

// Check requests every link concurrently and returns one result per link,
// in input order. Links not yet checked when ctx is cancelled are reported
// unreachable.
func Check(ctx context.Context, links []model.Node, opts Options) []Result {
	if len(links) == 0 {
		return nil
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	exclude := make(map[string]bool, len(opts.ExcludeDomains))
	for _, d := range opts.ExcludeDomains {
		exclude[strings.ToLower(d)] = true
	}

	results := make([]Result, len(links))
	jobs := make(chan int, len(links))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = checkLink(ctx, client, links[idx], exclude)

				if opts.OnProgress != nil {
					progressMu.Lock()
					completed++
					opts.OnProgress(completed, len(links))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// DeadLinks filters results down to the dead links.
func DeadLinks(results []Result) []model.Node {
	var out []model.Node
	for _, r := range results {
		if r.Status == Dead {
			out = append(out, r.Node)
		}
	}
	return out
}

func checkLink(ctx context.Context, client *http.Client, n model.Node, exclude map[string]bool) Result {
	result := Result{Node: n}

	if err := ctx.Err(); err != nil {
		result.Status = Unreachable
		result.Error = normalizeError(err)
		return result
	}

	// HEAD first; some servers only answer GET.
	resp, err := do(ctx, client, http.MethodHead, n.URL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = do(ctx, client, http.MethodGet, n.URL)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err)
			return result
		}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if excluded(n.URL, exclude) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		// 403, 5xx and friends may be temporary or need auth.
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func do(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// excluded reports whether the link's host is, or is below, an excluded domain.
func excluded(rawURL string, exclude map[string]bool) bool {
	host, ok := model.Hostname(rawURL)
	if !ok {
		return false
	}
	for domain := range exclude {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Unsupported scheme"
	default:
		return msg
	}
}
