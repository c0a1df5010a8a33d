// Package corpus is the HTTP client for the corpus browsing server: word
// suggestions for the search box and the HTML fragments loaded into passage
// popovers, lexicon modals and collection lists.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/resilience"
)

// Endpoint names an endpoint family. Each family has its own metric label;
// the fragment families also have their own breaker.
type Endpoint string

const (
	EndpointSuggest     Endpoint = "suggest"
	EndpointSnippet     Endpoint = "snippet"
	EndpointRelated     Endpoint = "related"
	EndpointLexicon     Endpoint = "lexicon"
	EndpointSubElements Endpoint = "subelements"
)

// Endpoints lists every family in a stable order.
var Endpoints = []Endpoint{EndpointSuggest, EndpointSnippet, EndpointRelated, EndpointLexicon, EndpointSubElements}

// FragmentEndpoints are the families guarded by a circuit breaker. Suggest
// is not: every debounce fire must reach the server.
var FragmentEndpoints = []Endpoint{EndpointSnippet, EndpointRelated, EndpointLexicon, EndpointSubElements}

const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Breaker   resilience.CircuitBreakerConfig
	Metrics   *metrics.Metrics
	// Transport overrides the underlying round tripper; tests use it.
	Transport http.RoundTripper
}

// Client talks to one corpus server. It is safe for concurrent use.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	breakers  map[Endpoint]*resilience.CircuitBreaker
	group     singleflight.Group
	logger    *slog.Logger
}

// New builds a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 0, "base url %q must be absolute", opts.BaseURL)
	}
	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		http:      &http.Client{Transport: newInstrumentedTransport(opts.Transport, opts.Metrics)},
		breakers:  make(map[Endpoint]*resilience.CircuitBreaker, len(FragmentEndpoints)),
		logger:    logger.WithComponent("corpus-client"),
	}

	cbCfg := opts.Breaker
	cbCfg.IsFailure = isServerFailure
	if m := opts.Metrics; m != nil {
		cbCfg.OnStateChange = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	for _, ep := range FragmentEndpoints {
		c.breakers[ep] = resilience.NewCircuitBreaker("corpus-"+string(ep), cbCfg)
		if opts.Metrics != nil {
			opts.Metrics.CircuitBreakerState.WithLabelValues("corpus-" + string(ep)).Set(0)
		}
	}
	return c, nil
}

// isServerFailure counts only failures that say something about the server
// being unwell: transport errors, timeouts and 5xx answers.
func isServerFailure(err error) bool {
	return apperrors.StatusCode(err) >= http.StatusInternalServerError
}

// Breaker returns the circuit breaker guarding ep, or nil for suggest.
func (c *Client) Breaker(ep Endpoint) *resilience.CircuitBreaker {
	return c.breakers[ep]
}

// Suggest fetches completion candidates for word.
func (c *Client) Suggest(ctx context.Context, word string, params suggest.Parameters) ([]string, error) {
	path := "/search/suggest/" + url.PathEscape(word) + params.Encode()
	body, err := c.get(ctx, EndpointSuggest, c.baseURL+path)
	if err != nil {
		return nil, err
	}
	var words []string
	if err := json.Unmarshal(body, &words); err != nil {
		return nil, fmt.Errorf("%w: suggest %q: %v", apperrors.ErrDecode, word, err)
	}
	logger.FromContext(ctx).Debug("suggestions received", "word", word, "count", len(words))
	return words, nil
}

// Snippet loads a passage. words, when set, asks the server to highlight them.
func (c *Client) Snippet(ctx context.Context, urn, target, words string) (Fragment, error) {
	display := target
	path := "/snippet/" + url.PathEscape(urn) + "/subreference/" + url.PathEscape(target)
	if words != "" {
		display += "?words=" + words
		path += "?words=" + url.QueryEscape(words)
	}
	f, err := c.fragment(ctx, EndpointSnippet, c.baseURL+path)
	if errors.Is(err, apperrors.ErrUpstreamStatus) {
		return Fragment{}, apperrors.Newf(apperrors.ErrNotFound, apperrors.StatusCode(err), "Passage %s:%s not found", urn, display)
	}
	return f, err
}

// Related loads the passages a commentary word points at. urns is passed
// through as the server formats it.
func (c *Client) Related(ctx context.Context, urns string) (Fragment, error) {
	f, err := c.fragment(ctx, EndpointRelated, c.baseURL+"/related/"+url.PathEscape(urns))
	if errors.Is(err, apperrors.ErrUpstreamStatus) {
		return Fragment{}, apperrors.Newf(apperrors.ErrUpstreamStatus, apperrors.StatusCode(err), "Something went wrong trying to process %s", urns)
	}
	return f, err
}

// Lexicon loads the dictionary entry for lemma.
func (c *Client) Lexicon(ctx context.Context, lemma string) (Fragment, error) {
	path := "/lexicon/urn:cts:formulae:elexicon." + url.PathEscape(lemma) + ".deu001"
	f, err := c.fragment(ctx, EndpointLexicon, c.baseURL+path)
	if errors.Is(err, apperrors.ErrUpstreamStatus) {
		return Fragment{}, apperrors.Newf(apperrors.ErrNotFound, apperrors.StatusCode(err), "No lexicon entry for %s", lemma)
	}
	return f, err
}

// SubElements loads a collection's sub-element list. ref is the URL the
// server put on the collection entry, relative to the base URL or absolute.
func (c *Client) SubElements(ctx context.Context, ref string) (Fragment, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return Fragment{}, err
	}
	f, err := c.fragment(ctx, EndpointSubElements, target)
	if errors.Is(err, apperrors.ErrUpstreamStatus) {
		return Fragment{}, apperrors.Newf(apperrors.ErrNotFound, apperrors.StatusCode(err), "No texts found for collection.")
	}
	return f, err
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, 0, "sub-element url %q: %v", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref, nil
}

// fragment collapses concurrent fetches of the same URL into one request.
// The shared fetch is detached from the caller's cancellation and bounded by
// the request timeout only; a caller that gives up returns early without
// failing the others.
func (c *Client) fragment(ctx context.Context, ep Endpoint, rawURL string) (Fragment, error) {
	ch := c.group.DoChan(string(ep)+" "+rawURL, func() (any, error) {
		return c.get(context.WithoutCancel(ctx), ep, rawURL)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Fragment{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return Fragment{}, res.Err
	}
	if res.Shared {
		logger.FromContext(ctx).Debug("fragment fetch shared", "endpoint", ep, "url", rawURL)
	}
	return Fragment{Endpoint: ep, HTML: string(res.Val.([]byte))}, nil
}

// get performs one GET under the request timeout and, for fragment
// endpoints, the endpoint's breaker. Any status other than 200 is an
// ErrUpstreamStatus carrying that status.
func (c *Client) get(ctx context.Context, ep Endpoint, rawURL string) ([]byte, error) {
	var body []byte
	call := func() error {
		return resilience.WithTimeout(ctx, c.timeout, string(ep), func(ctx context.Context) error {
			b, err := c.do(withEndpoint(ctx, ep), rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	}
	var err error
	if cb := c.breakers[ep]; cb != nil {
		err = cb.Execute(call)
	} else {
		err = call()
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.FromContext(ctx).Warn("corpus request failed", "endpoint", ep, "url", rawURL, "error", err)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, 0, "building request: %v", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: GET %s: %v", apperrors.ErrTransport, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, apperrors.Newf(apperrors.ErrUpstreamStatus, resp.StatusCode, "GET %s returned %d", req.URL.Path, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrTransport, req.URL.Path, err)
	}
	return b, nil
}
