package corpus

import (
	"context"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-browser/internal/suggest"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-browser/pkg/health"
)

const probeURN = "urn:cts:formulae:probe"

func (c *Client) probePath(ep Endpoint) string {
	switch ep {
	case EndpointSuggest:
		return "/search/suggest/a" + suggest.DefaultParameters().Encode()
	case EndpointSnippet:
		return "/snippet/" + probeURN + "/subreference/1"
	case EndpointRelated:
		return "/related/" + probeURN
	case EndpointLexicon:
		return "/lexicon/urn:cts:formulae:elexicon.probe.deu001"
	default:
		return "/"
	}
}

// RegisterHealthChecks adds one reachability probe per endpoint family. A
// family is up when the server answers with anything below 500; the probe
// URN does not need to exist.
func (c *Client) RegisterHealthChecks(checker *health.Checker, slow time.Duration) {
	for _, ep := range Endpoints {
		ep := ep
		if ep == EndpointSubElements {
			// sub-element URLs are server-issued; there is nothing stable to probe
			continue
		}
		rawURL := c.baseURL + c.probePath(ep)
		checker.Register(string(ep), health.Probe(func(ctx context.Context) error {
			_, err := c.get(ctx, ep, rawURL)
			if err != nil && apperrors.StatusCode(err) < http.StatusInternalServerError {
				return nil
			}
			return err
		}, slow))
	}
}
