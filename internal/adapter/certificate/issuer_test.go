package certificate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

func TestIssuer_CertificateURL(t *testing.T) {
	id := uuid.MustParse("0190f5c2-3c1a-7b52-8f00-3b2f1d7c9a10")
	cases := []struct {
		name string
		base string
		want string
	}{
		{name: "default", base: "", want: "https://certificates.local/certificates/" + id.String()},
		{name: "trailing slash", base: "https://skillswap.example.com/", want: "https://skillswap.example.com/certificates/" + id.String()},
		{name: "path prefix", base: "https://cdn.example.com/public", want: "https://cdn.example.com/public/certificates/" + id.String()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issuer, err := NewIssuer(tc.base)
			if err != nil {
				t.Fatalf("NewIssuer() error = %v", err)
			}
			got, err := issuer.CertificateURL(context.Background(), core.Certificate{ID: id})
			if err != nil {
				t.Fatalf("CertificateURL() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIssuer_Errors(t *testing.T) {
	if _, err := NewIssuer("not a url"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad base, got %v", err)
	}
	issuer, err := NewIssuer("")
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	if _, err := issuer.CertificateURL(context.Background(), core.Certificate{}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing id, got %v", err)
	}
}
