package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(now time.Time) *Issuer {
	iss := NewIssuer([]byte("super-secret"), "Roster", 7*24*time.Hour)
	iss.Now = func() time.Time { return now }
	return iss
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(now)

	tkn, err := iss.Issue("64a0c0ffee", KindSchool)
	require.NoError(t, err)

	claims, err := iss.Verify(tkn)
	require.NoError(t, err)
	assert.Equal(t, "64a0c0ffee", claims.Subject)
	assert.Equal(t, KindSchool, claims.Kind)
	assert.Equal(t, "Roster", claims.Issuer)
	assert.Equal(t, now.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssuer_Verify(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(now)

	studentTkn, err := iss.Issue("student-1", KindStudent, 4*time.Hour)
	require.NoError(t, err)

	otherIss := NewIssuer([]byte("wrong-secret"), "Roster", time.Hour)
	otherIss.Now = iss.Now
	forged, err := otherIss.Issue("student-1", KindStudent)
	require.NoError(t, err)

	noneTkn, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "student-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{name: "missing", token: "", at: now, wantErr: ErrMissingCredential},
		{name: "malformed", token: "not.a.jwt", at: now, wantErr: ErrInvalidCredential},
		{name: "bad signature", token: forged, at: now, wantErr: ErrInvalidCredential},
		{name: "alg none", token: noneTkn, at: now, wantErr: ErrInvalidCredential},
		{name: "valid just before expiry", token: studentTkn, at: now.Add(4*time.Hour - time.Second)},
		{name: "expired at expiry", token: studentTkn, at: now.Add(4 * time.Hour), wantErr: ErrExpiredCredential},
		{name: "expired 4h and 1s later", token: studentTkn, at: now.Add(4*time.Hour + time.Second), wantErr: ErrExpiredCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			iss.Now = func() time.Time { return at }

			claims, err := iss.Verify(tt.token)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "student-1", claims.Subject)
			assert.Equal(t, KindStudent, claims.Kind)
		})
	}
}

func TestIssuer_IssueIgnoresNonPositiveTTL(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(now)

	tkn, err := iss.Issue("school-1", KindSchool, 0)
	require.NoError(t, err)

	claims, err := iss.Verify(tkn)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}
