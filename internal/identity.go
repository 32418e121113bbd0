package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
)

// ServiceCredentials is the temporary access/secret/session triple minted by
// the identity pool for direct service calls.
type ServiceCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// IdentityAPI is the subset of the identity pool client used here.
type IdentityAPI interface {
	GetId(ctx context.Context, params *cognitoidentity.GetIdInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

// IdentityBroker exchanges a verified identity token for an identity ID and
// temporary service credentials.
type IdentityBroker struct {
	client IdentityAPI
	cfg    *Config
}

// NewIdentityBroker creates a broker against the configured identity pool.
// GetId and GetCredentialsForIdentity are unsigned APIs, so the client runs
// with anonymous credentials.
func NewIdentityBroker(cfg *Config) *IdentityBroker {
	client := cognitoidentity.New(cognitoidentity.Options{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	})
	return &IdentityBroker{client: client, cfg: cfg}
}

// NewIdentityBrokerWithClient creates a broker with an injected client.
func NewIdentityBrokerWithClient(client IdentityAPI, cfg *Config) *IdentityBroker {
	return &IdentityBroker{client: client, cfg: cfg}
}

// GetIdentityID looks up the identity ID for the given identity token.
func (b *IdentityBroker) GetIdentityID(ctx context.Context, idToken string) (string, error) {
	out, err := b.client.GetId(ctx, &cognitoidentity.GetIdInput{
		IdentityPoolId: aws.String(b.cfg.IdentityPoolID),
		Logins: map[string]string{
			b.cfg.ProviderName(): idToken,
		},
	})
	if err != nil {
		return "", &AuthError{Op: "identity", Err: err}
	}
	if out.IdentityId == nil || *out.IdentityId == "" {
		return "", &AuthError{Op: "identity", Err: fmt.Errorf("identity pool returned no identity id")}
	}
	return *out.IdentityId, nil
}

// GetServiceCredentials mints temporary service credentials for an identity.
func (b *IdentityBroker) GetServiceCredentials(ctx context.Context, idToken, identityID string) (*ServiceCredentials, error) {
	out, err := b.client.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: aws.String(identityID),
		Logins: map[string]string{
			b.cfg.ProviderName(): idToken,
		},
	})
	if err != nil {
		return nil, &AuthError{Op: "credentials", Err: err}
	}

	creds := out.Credentials
	if creds == nil || creds.AccessKeyId == nil || creds.SecretKey == nil || creds.SessionToken == nil {
		return nil, &AuthError{Op: "credentials", Err: fmt.Errorf("identity pool returned incomplete credentials")}
	}

	return &ServiceCredentials{
		AccessKeyID:     *creds.AccessKeyId,
		SecretAccessKey: *creds.SecretKey,
		SessionToken:    *creds.SessionToken,
	}, nil
}

// ActorID derives the backend actor identifier from an identity ID, which
// has the form "<region>:<uuid>".
func ActorID(identityID string) string {
	parts := strings.SplitN(identityID, ":", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return identityID
}
