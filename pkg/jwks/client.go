package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	ErrKeyNotFound  = errors.New("jwks: signing key not found")
	ErrRateLimited  = errors.New("jwks: refresh rate limited")
	ErrAmbiguousKid = errors.New("jwks: token has no kid and the key set holds several keys")
)

// Client caches RS256 keys fetched from a JWKS endpoint. A cache miss triggers a refetch,
// bounded by a token bucket so unknown kids cannot flood the endpoint. Callers that miss
// while a fetch is in flight wait for it instead of being limited.
type Client struct {
	uri        string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewClient allows up to refreshesPerMinute fetches per minute, one at a time.
func NewClient(uri string, refreshesPerMinute int) *Client {
	if refreshesPerMinute <= 0 {
		refreshesPerMinute = 10
	}
	return &Client{
		uri: uri,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(float64(refreshesPerMinute)/60), 1),
		keys:    map[string]*rsa.PublicKey{},
	}
}

// Keyfunc plugs the cache into jwt.Parse.
func (c *Client) Keyfunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Key(ctx, kid)
}

func (c *Client) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, err := c.cached(kid); err == nil {
		return key, nil
	} else if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	// Concurrent misses share one fetch; only the fetch itself is rate limited.
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		if !c.limiter.Allow() {
			return nil, ErrRateLimited
		}
		return nil, c.Refresh(ctx)
	})
	// Another caller's fetch may have landed the key between the miss and Do.
	key, cerr := c.cached(kid)
	if cerr == nil {
		return key, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, cerr
}

func (c *Client) cached(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if kid == "" {
		switch len(c.keys) {
		case 0:
			return nil, ErrKeyNotFound
		case 1:
			for _, k := range c.keys {
				return k, nil
			}
		default:
			return nil, ErrAmbiguousKid
		}
	}
	key, ok := c.keys[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// Refresh replaces the cached key set with the endpoint's current one.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uri, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch failed with status: %d", resp.StatusCode)
	}

	var set Set
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := k.RSAPublicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}
