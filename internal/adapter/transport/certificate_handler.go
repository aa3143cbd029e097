package transport

import (
	"context"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// CertificateHandler serves certificate generation and lookup.
type CertificateHandler struct {
	certificates core.CertificationService
}

var _ skillswapv1connect.CertificateServiceHandler = (*CertificateHandler)(nil)

// NewCertificateHandler builds a new certificate handler.
func NewCertificateHandler(certificates core.CertificationService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

func (h *CertificateHandler) GenerateCertificate(ctx context.Context, req *connect.Request[skillswapv1.GenerateCertificateRequest]) (*connect.Response[skillswapv1.GenerateCertificateResponse], error) {
	enrollmentID, err := parseID("enrollment_id", req.Msg.GetEnrollmentId())
	if err != nil {
		return nil, err
	}
	cert, err := h.certificates.Generate(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GenerateCertificateResponse{Certificate: toCertificate(*cert, 0)}), nil
}

func (h *CertificateHandler) GetCertificate(ctx context.Context, req *connect.Request[skillswapv1.GetCertificateRequest]) (*connect.Response[skillswapv1.GetCertificateResponse], error) {
	id, err := parseID("certificate_id", req.Msg.GetCertificateId())
	if err != nil {
		return nil, err
	}
	cert, err := h.certificates.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetCertificateResponse{Certificate: toCertificate(*cert, 0)}), nil
}

func (h *CertificateHandler) ListCertificates(ctx context.Context, req *connect.Request[skillswapv1.ListCertificatesRequest]) (*connect.Response[skillswapv1.ListCertificatesResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	certs, err := h.certificates.ListCertificates(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.ListCertificatesResponse{Certificates: lo.Map(certs, toCertificate)}), nil
}
