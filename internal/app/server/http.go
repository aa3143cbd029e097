package server

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/eslsoft/skillswap/internal/adapter/transport"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// Handlers groups the Connect handlers mounted by the server.
type Handlers struct {
	Credit      *transport.CreditHandler
	Catalog     *transport.CatalogHandler
	Enrollment  *transport.EnrollmentHandler
	Certificate *transport.CertificateHandler
	Analytics   *transport.AnalyticsHandler
}

// NewHTTPHandler wires the Connect handlers into a ServeMux ready for serving.
func NewHTTPHandler(h Handlers, opts []connect.HandlerOption) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(skillswapv1connect.NewCreditServiceHandler(h.Credit, opts...))
	mux.Handle(skillswapv1connect.NewCatalogServiceHandler(h.Catalog, opts...))
	mux.Handle(skillswapv1connect.NewEnrollmentServiceHandler(h.Enrollment, opts...))
	mux.Handle(skillswapv1connect.NewCertificateServiceHandler(h.Certificate, opts...))
	mux.Handle(skillswapv1connect.NewAnalyticsServiceHandler(h.Analytics, opts...))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
