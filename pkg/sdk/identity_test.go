package sdk_test

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strelizia53/medisys-sheroll-aws/pkg/sdk"
)

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	signingKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		signingKey = key
	})
	return signingKey
}

// signIDToken mints an RS256-signed JWT with the given registered and
// portal claims, shaped like what the identity pool issues.
func signIDToken(t *testing.T, std jwt.Claims, custom map[string]any) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: testSigningKey(t)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)
	builder := jwt.Signed(signer).Claims(std)
	if len(custom) > 0 {
		builder = builder.Claims(custom)
	}
	raw, err := builder.Serialize()
	require.NoError(t, err)
	return raw
}

func credsWithToken(idToken string) *sdk.Credentials {
	return &sdk.Credentials{
		IDToken:   idToken,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestBroker_Current_SignedOut(t *testing.T) {
	broker := sdk.NewBroker(nil)
	id, err := broker.Current()
	require.NoError(t, err, "a signed-out session is a valid snapshot, not an error")
	assert.False(t, id.Authenticated)
	assert.Empty(t, id.Roles)
}

func TestBroker_Current_ParsesClaims(t *testing.T) {
	expiry := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := signIDToken(t,
		jwt.Claims{Subject: "sub-123", Expiry: jwt.NewNumericDate(expiry)},
		map[string]any{
			"email":            "nurse@clinic-a.example",
			"cognito:username": "nurse.a",
			"cognito:groups":   []string{"ClinicUser"},
			"custom:clinicId":  "clinicA",
		},
	)

	broker := sdk.NewBroker(credsWithToken(token))
	id, err := broker.Current()
	require.NoError(t, err)

	assert.True(t, id.Authenticated)
	assert.Equal(t, "sub-123", id.Subject)
	assert.Equal(t, "nurse@clinic-a.example", id.Email)
	assert.Equal(t, "nurse.a", id.Username)
	assert.Equal(t, "clinicA", id.ClinicID)
	assert.Equal(t, []string{"ClinicUser"}, id.Roles)
	assert.True(t, id.HasRole("ClinicUser"))
	assert.False(t, id.HasRole("Admin"))
	assert.Equal(t, expiry.Unix(), id.ExpiresAt.Unix())
}

func TestBroker_Current_RoleClaimFallback(t *testing.T) {
	tests := []struct {
		name      string
		custom    map[string]any
		wantRoles []string
	}{
		{
			name:      "roles claim wins",
			custom:    map[string]any{"roles": []string{"Admin"}, "groups": []string{"X"}, "cognito:groups": []string{"Y"}},
			wantRoles: []string{"Admin"},
		},
		{
			name:      "groups when roles absent",
			custom:    map[string]any{"groups": []string{"HealthcareTeam"}, "cognito:groups": []string{"Y"}},
			wantRoles: []string{"HealthcareTeam"},
		},
		{
			name:      "cognito groups as last resort",
			custom:    map[string]any{"cognito:groups": []string{"ClinicUser"}},
			wantRoles: []string{"ClinicUser"},
		},
		{
			name:      "no role claims at all",
			custom:    map[string]any{"email": "x@y.z"},
			wantRoles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signIDToken(t, jwt.Claims{Subject: "s"}, tt.custom)
			id, err := sdk.NewBroker(credsWithToken(token)).Current()
			require.NoError(t, err)
			if tt.wantRoles == nil {
				assert.Empty(t, id.Roles)
			} else {
				assert.Equal(t, tt.wantRoles, id.Roles)
			}
		})
	}
}

func TestBroker_Current_ClinicFallsBackToFirstRole(t *testing.T) {
	token := signIDToken(t, jwt.Claims{Subject: "s"}, map[string]any{
		"cognito:groups": []string{"clinicB", "ClinicUser"},
	})
	id, err := sdk.NewBroker(credsWithToken(token)).Current()
	require.NoError(t, err)
	assert.Equal(t, "clinicB", id.ClinicID)
}

func TestBroker_Current_ExpiredCredentials(t *testing.T) {
	token := signIDToken(t, jwt.Claims{Subject: "s"}, map[string]any{
		"cognito:groups": []string{"Admin"},
	})
	broker := sdk.NewBroker(&sdk.Credentials{
		IDToken:   token,
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	id, err := broker.Current()
	require.NoError(t, err)
	assert.False(t, id.Authenticated, "expired credentials read as signed out")
}

func TestBroker_Current_MalformedToken(t *testing.T) {
	broker := sdk.NewBroker(credsWithToken("not-a-jwt"))
	_, err := broker.Current()
	require.Error(t, err)
	assert.True(t, sdk.IsKind(err, sdk.ErrorIdentity))
}

func TestBroker_IDToken(t *testing.T) {
	token := signIDToken(t, jwt.Claims{Subject: "s"}, nil)

	t.Run("signed out", func(t *testing.T) {
		_, err := sdk.NewBroker(nil).IDToken()
		require.Error(t, err)
		assert.True(t, sdk.IsKind(err, sdk.ErrorIdentity))
		assert.Contains(t, err.Error(), "not signed in")
	})

	t.Run("expired", func(t *testing.T) {
		broker := sdk.NewBroker(&sdk.Credentials{IDToken: token, ExpiresAt: time.Now().Add(-time.Second)})
		_, err := broker.IDToken()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("valid", func(t *testing.T) {
		got, err := sdk.NewBroker(credsWithToken(token)).IDToken()
		require.NoError(t, err)
		assert.Equal(t, token, got)
	})
}

func TestBroker_SubscribeNotifies(t *testing.T) {
	broker := sdk.NewBroker(nil)

	var got []sdk.Identity
	cancel := broker.Subscribe(func(id sdk.Identity) {
		got = append(got, id)
	})

	token := signIDToken(t, jwt.Claims{Subject: "sub-1"}, map[string]any{
		"cognito:groups": []string{"Admin"},
	})
	broker.SetCredentials(credsWithToken(token))
	broker.Clear()

	require.Len(t, got, 2)
	assert.True(t, got[0].Authenticated)
	assert.Equal(t, "sub-1", got[0].Subject)
	assert.False(t, got[1].Authenticated, "sign-out notifies with a zero identity")

	cancel()
	broker.SetCredentials(credsWithToken(token))
	assert.Len(t, got, 2, "cancelled subscriptions must not fire")
}
