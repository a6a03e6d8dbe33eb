package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/arunprabus/health-api/pkg/logger"
)

// CognitoAPI is the subset of *cognitoidentityprovider.Client the provider uses.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

const DefaultProviderRPS = 5

// CognitoProvider calls the user pool app client. Outbound calls share one token
// bucket so a burst of logins cannot exhaust the pool's API quota.
type CognitoProvider struct {
	client   CognitoAPI
	clientID string
	limiter  *rate.Limiter
}

func NewCognitoProvider(client CognitoAPI, clientID string, rps float64) *CognitoProvider {
	if rps <= 0 {
		rps = DefaultProviderRPS
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &CognitoProvider{
		client:   client,
		clientID: clientID,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *CognitoProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	out, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return "", providerError("signup", err)
	}
	return aws.ToString(out.UserSub), nil
}

func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	_, err := p.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return providerError("confirm", err)
	}
	return nil
}

// Login runs the USER_PASSWORD_AUTH flow. User details come from the ID token,
// which is decoded without verification because it arrived straight from the provider.
func (p *CognitoProvider) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(p.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, providerError("login", err)
	}
	result := out.AuthenticationResult
	if result == nil {
		return nil, fmt.Errorf("%w: %s", ErrChallenge, out.ChallengeName)
	}

	user, err := DecodeIDToken(aws.ToString(result.IdToken))
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  aws.ToString(result.AccessToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		IDToken:      aws.ToString(result.IdToken),
		ExpiresIn:    result.ExpiresIn,
		User:         user,
	}, nil
}

type idTokenClaims struct {
	Email           string `json:"email"`
	CognitoUsername string `json:"cognito:username"`
	jwt.RegisteredClaims
}

// DecodeIDToken reads sub, email and username from an ID token payload.
func DecodeIDToken(token string) (UserInfo, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return UserInfo{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.Subject == "" {
		return UserInfo{}, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	}
	username := claims.CognitoUsername
	if username == "" {
		username = claims.Email
	}
	return UserInfo{Sub: claims.Subject, Email: claims.Email, Username: username}, nil
}

func (p *CognitoProvider) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func providerError(action string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		logger.Warn("identity provider rejected request",
			"module", "identity", "action", action, "resource", "cognito", "result", "failed",
			"code", apiErr.ErrorCode())
		return &ProviderError{Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}
	logger.Error("identity provider call failed",
		"module", "identity", "action", action, "resource", "cognito", "result", "failed", "error", err)
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
