package app

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
)

// Authenticator verifies the merchant key Payme sends with every webhook
// call. The header value is "<scheme> <base64(login:key)>"; only the key
// after the last colon is checked. Every failure mode produces the same
// permission error so callers cannot probe which check rejected them.
type Authenticator struct {
	merchantKey string
}

func NewAuthenticator(merchantKey string) *Authenticator {
	return &Authenticator{merchantKey: merchantKey}
}

func (a *Authenticator) Authorize(header string) error {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return domain.NewPermissionDenied("Missing authentication credentials")
	}

	decoded, err := base64.StdEncoding.DecodeString(fields[len(fields)-1])
	if err != nil {
		return domain.NewPermissionDenied("Decoding error in authentication credentials")
	}

	parts := strings.Split(string(decoded), ":")
	presented := parts[len(parts)-1]

	if subtle.ConstantTimeCompare([]byte(presented), []byte(a.merchantKey)) != 1 {
		return domain.NewPermissionDenied("Invalid merchant key specified")
	}
	return nil
}
