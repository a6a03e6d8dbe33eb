package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/arunprabus/health-api/pkg/logger"
)

// AccessClaims are the claims of a Cognito access token.
type AccessClaims struct {
	TokenUse string `json:"token_use"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

type VerifierConfig struct {
	Region     string
	UserPoolID string
	ClientID   string
	// JWKSURL overrides the pool's well-known key set location.
	JWKSURL    string
	HTTPClient *http.Client
	// MinRefreshInterval bounds how often an unknown kid may trigger a key set refetch.
	MinRefreshInterval time.Duration
	// FetchTimeout bounds one shared key set refresh, retries included.
	FetchTimeout time.Duration
	MaxRetries   uint64
	Leeway       time.Duration
}

// Verifier checks RS256 access tokens against the user pool's JWKS.
// Keys are cached by kid; concurrent refreshes collapse into one fetch.
type Verifier struct {
	issuer   string
	clientID string
	jwksURL  string
	client   *http.Client
	cfg      VerifierConfig
	now      func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func Issuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	issuer := Issuer(cfg.Region, cfg.UserPoolID)
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Verifier{
		issuer:   issuer,
		clientID: cfg.ClientID,
		jwksURL:  jwksURL,
		client:   client,
		cfg:      cfg,
		now:      time.Now,
		keys:     make(map[string]*rsa.PublicKey),
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.TokenUse != "access" {
		return nil, fmt.Errorf("%w: token_use is %q", ErrInvalidToken, claims.TokenUse)
	}
	if claims.ClientID != v.clientID {
		return nil, fmt.Errorf("%w: client_id mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fetchedAt := v.fetchedAt
	v.mu.RUnlock()
	if ok {
		return k, nil
	}
	if !fetchedAt.IsZero() && v.now().Sub(fetchedAt) < v.cfg.MinRefreshInterval {
		return nil, ErrUnknownKey
	}

	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	k, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownKey
	}
	return k, nil
}

// Refresh replaces the cached key set with the provider's current one.
// The shared fetch outlives a cancelled caller so other waiters still get the keys.
func (v *Verifier) Refresh(ctx context.Context) error {
	ch := v.group.DoChan("jwks", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.cfg.FetchTimeout)
		defer cancel()

		keys, err := v.fetchWithRetry(fetchCtx)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.keys = keys
		v.fetchedAt = v.now()
		v.mu.Unlock()
		logger.Info("signing keys refreshed", "module", "identity", "action", "refresh", "resource", "jwks", "result", "ok", "count", len(keys))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Verifier) fetchWithRetry(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(eb, v.cfg.MaxRetries), ctx)

	var keys map[string]*rsa.PublicKey
	op := func() error {
		var err error
		keys, err = v.fetch(ctx)
		return err
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("signing key fetch failed, retrying", "module", "identity", "action", "refresh", "resource", "jwks", "result", "failed", "error", err, "delay", delay)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetFetch, err)
	}
	return keys, nil
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *Verifier) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&set); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode key set: %w", err))
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKey(k.N, k.E)
		if err != nil {
			logger.Warn("skipping malformed signing key", "module", "identity", "resource", "jwks", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

func rsaKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() < 2 || exp.Int64() > 1<<31-1 {
		return nil, errors.New("exponent out of range")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}
