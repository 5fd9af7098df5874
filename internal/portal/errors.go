package portal

import (
	"errors"
	"net/url"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
)

// ClassifyRequestError turns a failed round-trip into a *apperrors.TransportError.
// It is the single place where request failures are translated.
func ClassifyRequestError(op, rawURL string, err error) error {
	if err == nil {
		return nil
	}

	var te *apperrors.TransportError
	if errors.As(err, &te) {
		return err
	}

	cause := err
	var ue *url.Error
	if errors.As(err, &ue) {
		cause = ue.Err
	}

	return &apperrors.TransportError{Op: op, URL: rawURL, Err: cause}
}
