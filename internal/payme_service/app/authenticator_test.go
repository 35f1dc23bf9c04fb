package app

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
)

const testMerchantKey = "super-secret-key"

func basicHeader(login, key string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+key))
}

func TestAuthenticator_ValidKey(t *testing.T) {
	auth := NewAuthenticator(testMerchantKey)
	assert.NoError(t, auth.Authorize(basicHeader("Paycom", testMerchantKey)))
}

func TestAuthenticator_KeyWithoutLogin(t *testing.T) {
	// Only the segment after the last colon is checked.
	auth := NewAuthenticator(testMerchantKey)
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte(testMerchantKey))
	assert.NoError(t, auth.Authorize(header))
}

func TestAuthenticator_Failures(t *testing.T) {
	auth := NewAuthenticator(testMerchantKey)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"whitespace only header", "   "},
		{"not base64", "Basic %%%not-base64%%%"},
		{"wrong key", basicHeader("Paycom", "wrong-key")},
		{"empty decoded credential", "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:"))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := auth.Authorize(c.header)
			require.Error(t, err)

			// Every failure mode must be externally identical.
			var perr *domain.ProtocolError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, domain.CodePermissionDenied, perr.Code)
		})
	}
}
