package suap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"

	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
)

// transportFailure maps an HTTP client error to a failure reason.
func transportFailure(err error) *provider.Failure {
	return &provider.Failure{Reason: classify(err), Detail: err.Error()}
}

func classify(err error) provider.Reason {
	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		netErr       net.Error
	)

	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &authorityErr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return provider.TLSError
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return provider.Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return provider.Timeout
	default:
		return provider.NetworkUnreachable
	}
}
