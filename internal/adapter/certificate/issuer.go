package certificate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

// DefaultBaseURL is used when no public base is configured.
const DefaultBaseURL = "https://certificates.local"

// Issuer derives public certificate links from a base URL. Links are
// deterministic, so regenerating a certificate never changes its URL.
type Issuer struct {
	base string
}

// NewIssuer constructs an issuer rooted at base.
func NewIssuer(base string) (*Issuer, error) {
	base = normalizeBase(base, DefaultBaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid certificate base url %q", core.ErrValidation, base)
	}
	return &Issuer{base: base}, nil
}

var _ core.CertificateIssuer = (*Issuer)(nil)

// CertificateURL returns the public link for cert.
func (i *Issuer) CertificateURL(_ context.Context, cert core.Certificate) (string, error) {
	if cert.ID == uuid.Nil {
		return "", fmt.Errorf("%w: certificate id required", core.ErrValidation)
	}
	return fmt.Sprintf("%s/certificates/%s", i.base, cert.ID), nil
}

func normalizeBase(base, fallback string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return fallback
	}
	return strings.TrimSuffix(base, "/")
}
