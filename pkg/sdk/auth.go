package sdk

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/client/rp/cli"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"
)

// LoginSuccessMetadata contains information about the successful login,
// useful for displaying a confirmation message to the user.
type LoginSuccessMetadata struct {
	// User is the 'sub' claim from the ID token.
	User string
	// Email is the 'email' claim, if present.
	Email string
	// ExpiresAt is when the token expires.
	ExpiresAt time.Time
}

// LoginWithDeviceCode initiates the OIDC Device Authorization Flow
// (RFC 8628). It guides the user to authorize the CLI in a browser,
// polls for tokens, and returns credentials whose ID token carries the
// portal's role and clinic claims.
//
// The function performs OIDC discovery from the issuer to find the
// device authorization endpoints automatically.
func LoginWithDeviceCode(
	ctx context.Context,
	issuer string,
	clientID string,
) (*LoginSuccessMetadata, *Credentials, error) {

	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}

	// Discovery works against the hosted identity pool's
	// /.well-known/openid-configuration document.
	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		"", // clientSecret - empty for public client (device flow)
		"", // redirectURI - not used for device flow
		scopes,
		rp.WithHTTPClient(defaultHTTPClient()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover OIDC provider at %s: %w", issuer, err)
	}

	authResponse, err := rp.DeviceAuthorization(ctx, scopes, relyingParty, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start device authorization flow: %w", err)
	}

	printDeviceCodeInstructions(authResponse)

	// Attempt to open browser automatically (best effort).
	if authResponse.VerificationURIComplete != "" {
		cli.OpenBrowser(authResponse.VerificationURIComplete)
		log.Println("Attempted to open browser automatically")
	}

	// Poll the token endpoint with the device_code grant until the user
	// approves or the flow times out. The interval comes from the
	// authorization server (typically 5 seconds).
	interval := time.Duration(authResponse.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}

	token, err := rp.DeviceAccessToken(ctx, authResponse.DeviceCode, interval, relyingParty)
	if err != nil {
		return nil, nil, fmt.Errorf("device authorization failed: %w\n\nThis usually means:\n  - User denied the request\n  - Authorization expired (timeout)\n  - Network connectivity issues", err)
	}
	if token.IDToken == "" {
		return nil, nil, fmt.Errorf("authorization server returned no ID token; the portal API requires one")
	}

	var idTokenClaims *oidc.IDTokenClaims
	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, token.IDToken, relyingParty.IDTokenVerifier())
	if err != nil {
		log.Printf("Warning: failed to verify ID token: %v", err)
	} else {
		idTokenClaims = claims
	}

	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	creds := &Credentials{
		IDToken:      token.IDToken,
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
	}

	metadata := &LoginSuccessMetadata{
		ExpiresAt: expiresAt,
	}
	if idTokenClaims != nil {
		metadata.User = idTokenClaims.Subject
		metadata.Email = idTokenClaims.Email
	}

	return metadata, creds, nil
}

// RefreshCredentials exchanges a refresh token for fresh credentials.
// Callers should install the result into the broker so the refresh is
// observed as an identity-change event.
func RefreshCredentials(
	ctx context.Context,
	issuer string,
	clientID string,
	refreshToken string,
) (*Credentials, error) {
	scopes := []string{oidc.ScopeOpenID, oidc.ScopeProfile, oidc.ScopeEmail, oidc.ScopeOfflineAccess}
	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		issuer,
		clientID,
		"",
		"",
		scopes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	oauthConfig := relyingParty.OAuthConfig()
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
	})

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	idToken, _ := newToken.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("token refresh returned no ID token")
	}

	refreshed := newToken.RefreshToken
	if refreshed == "" {
		refreshed = refreshToken
	}

	return &Credentials{
		IDToken:      idToken,
		AccessToken:  newToken.AccessToken,
		TokenType:    newToken.TokenType,
		RefreshToken: refreshed,
		ExpiresAt:    newToken.Expiry,
	}, nil
}

// defaultHTTPClient returns an HTTP client with a reasonable timeout
// for OIDC operations.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// printDeviceCodeInstructions displays the device code and verification
// URL to the user.
func printDeviceCodeInstructions(authResponse *oidc.DeviceAuthorizationResponse) {
	fmt.Println("============================================================")
	fmt.Printf("Your user code is: %s\n", authResponse.UserCode)
	fmt.Println("")
	fmt.Println("Please visit the following URL in your browser to authorize this device:")
	fmt.Printf("  %s\n", authResponse.VerificationURI)
	fmt.Println("")
	if authResponse.VerificationURIComplete != "" {
		fmt.Println("Or use this direct link (includes code):")
		fmt.Printf("  %s\n", authResponse.VerificationURIComplete)
	}
	fmt.Println("============================================================")
	fmt.Println("Waiting for authorization...")
	fmt.Println("")
}
