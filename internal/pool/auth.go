package pool

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
)

// azureSQLResource is the token scope for Azure SQL Database, mirroring
// original_source's AZURE_SQL_RESOURCE.
const azureSQLResource = "https://database.windows.net/.default"

// dsn builds the go-mssqldb connection URL for the base (non-auth) part of
// the configuration: host, port, database, encryption, certificate trust,
// and application name.
func (c Config) dsn() *url.URL {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   c.address(),
	}
	q := url.Values{}
	if c.Database != "" {
		q.Set("database", c.Database)
	}
	if c.Encrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	if c.TrustServerCertificate {
		q.Set("trustservercertificate", "true")
	}
	if c.ApplicationName != "" {
		q.Set("app name", c.ApplicationName)
	}
	u.RawQuery = q.Encode()
	return u
}

// connectionString resolves the auth-bearing DSN for one connection attempt.
// For Azure AD, a fresh bearer token is acquired on every call so expiring
// tokens never leak into a long-lived connection string, matching
// original_source's "acquire fresh per connect" comment.
func (c Config) connectionString(ctx context.Context) (string, error) {
	u := c.dsn()

	switch c.Auth.Mode {
	case AuthSQLServer:
		u.User = url.UserPassword(c.Auth.Username, c.Auth.Password)
		return u.String(), nil

	case AuthIntegrated:
		q := u.Query()
		q.Set("integrated security", "sspi")
		u.RawQuery = q.Encode()
		return u.String(), nil

	case AuthAzureAD:
		token, err := acquireAzureADToken(ctx, c.Auth.ClientID, c.Auth.ClientSecret, c.Auth.TenantID)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set("fedauth", "ActiveDirectoryServicePrincipalAccessToken")
		q.Set("accesstoken", token)
		u.RawQuery = q.Encode()
		return u.String(), nil

	default:
		return "", dberrors.Config(fmt.Sprintf("unknown auth mode %d", c.Auth.Mode))
	}
}

// acquireAzureADToken runs the client-credentials flow via azidentity,
// grounded on original_source's acquire_azure_ad_token (which uses
// azure_identity::ClientSecretCredential against the same resource scope).
func acquireAzureADToken(ctx context.Context, clientID, clientSecret, tenantID string) (string, error) {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return "", dberrors.Authentication(fmt.Sprintf("failed to build Azure AD credential: %v", err))
	}

	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{azureSQLResource}})
	if err != nil {
		return "", dberrors.Authentication(fmt.Sprintf("failed to acquire Azure AD token: %v", err))
	}
	return tok.Token, nil
}
