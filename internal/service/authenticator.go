package service

import (
	"context"
	"errors"

	"github.com/arunprabus/health-api/internal/model"
)

type chainAuthenticator struct {
	auths []Authenticator
}

// NewChainAuthenticator tries each authenticator in order and returns the first
// principal. Nil entries are skipped so optional providers can be passed directly.
func NewChainAuthenticator(auths ...Authenticator) Authenticator {
	kept := make([]Authenticator, 0, len(auths))
	for _, a := range auths {
		if a != nil {
			kept = append(kept, a)
		}
	}
	return &chainAuthenticator{auths: kept}
}

func (c *chainAuthenticator) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var upstream error
	for _, a := range c.auths {
		principal, err := a.Authenticate(ctx, token)
		if err == nil {
			return principal, nil
		}
		if errors.Is(err, ErrInvalidToken) {
			continue
		}
		if upstream == nil {
			upstream = err
		}
	}
	if upstream != nil {
		return nil, upstream
	}
	return nil, ErrInvalidToken
}
