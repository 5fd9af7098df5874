// Package archive drives the portal's announce/fetch workflow that produces a
// zipped CSV statement for one account.
package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/gcsuploader"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/dvloznov/bank-portal-sync/internal/portal"
)

const (
	// AnnouncePath asks the portal to prepare an archive.
	AnnouncePath = "/fr/prive/mes-comptes/compte-courant/consulter-situation/telecharger-historique/telechargement-especes.jsp"

	// DownloadPathPrefix is followed by the account number and ".zip".
	DownloadPathPrefix = "/documents/HistoriqueOperations_"

	// ConfirmationPhrase appears on the announce page once the archive is ready.
	ConfirmationPhrase = "Lancer le téléchargement"
)

// RawStore keeps a copy of each downloaded archive.
type RawStore interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
}

// Downloader fetches statement lines through a portal session.
type Downloader struct {
	portal portal.Doer
	store  RawStore
	now    func() time.Time
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithRawStore keeps every fetched archive in store. Store failures are logged only.
func WithRawStore(store RawStore) Option {
	return func(d *Downloader) { d.store = store }
}

// WithClock overrides the clock used to name stored archives.
func WithClock(now func() time.Time) Option {
	return func(d *Downloader) { d.now = now }
}

// NewDownloader creates a Downloader on the given session.
func NewDownloader(p portal.Doer, opts ...Option) *Downloader {
	d := &Downloader{portal: p, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AnnounceForm is the form that requests an archive for [begin, end].
func AnnounceForm(begin, end time.Time) url.Values {
	return url.Values{
		"formatSelectionner": {"csv"},
		"dateRechercheDebut": {normalize.FormatDate(begin)},
		"dateRechercheFin":   {normalize.FormatDate(end)},
		"triEnDate":          {"0"},
	}
}

// DownloadPath is the archive resource of an account.
func DownloadPath(accountNumber string) string {
	return DownloadPathPrefix + accountNumber + ".zip"
}

// Download returns the statement lines of account between begin and end.
// An archive the portal did not prepare yields no lines and no error.
// Transport failures are returned as-is; nothing is retried.
func (d *Downloader) Download(ctx context.Context, begin, end time.Time, account domain.Account) ([]string, error) {
	log := logger.FromContext(ctx).With().Str("account_number", account.Number).Logger()

	form := AnnounceForm(begin, end)

	err := d.announce(ctx, form)
	if errors.Is(err, apperrors.ErrArchiveUnavailable) {
		log.Info().Err(err).Msg("No archive prepared for this period")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Download: %w", err)
	}

	form.Set("noCompteSelectionner", account.Number)

	data, err := d.fetch(ctx, DownloadPath(account.Number), form)
	if err != nil {
		return nil, fmt.Errorf("Download: %w", err)
	}
	log.Debug().Int("bytes", len(data)).Msg("Fetched statement archive")

	d.keep(ctx, account, data)

	lines, err := Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("Download: %w", err)
	}
	return lines, nil
}

func (d *Downloader) announce(ctx context.Context, form url.Values) error {
	resp, err := d.portal.Do(ctx, http.MethodPost, AnnouncePath, form)
	if err != nil {
		return fmt.Errorf("announcing archive: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: announce returned status %d", apperrors.ErrArchiveUnavailable, resp.StatusCode)
	}

	text, err := resp.Text()
	if err != nil {
		return fmt.Errorf("announcing archive: %w", err)
	}
	if !strings.Contains(text, ConfirmationPhrase) {
		return fmt.Errorf("%w: confirmation phrase missing", apperrors.ErrArchiveUnavailable)
	}
	return nil
}

func (d *Downloader) fetch(ctx context.Context, path string, form url.Values) ([]byte, error) {
	resp, err := d.portal.Do(ctx, http.MethodGet, path, form)
	if err != nil {
		return nil, fmt.Errorf("fetching archive: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.TransportError{Op: http.MethodGet, URL: path, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (d *Downloader) keep(ctx context.Context, account domain.Account, data []byte) {
	if d.store == nil {
		return
	}
	log := logger.FromContext(ctx)

	uri, err := d.store.Store(ctx, gcsuploader.ObjectName(account.Number, d.now()), data)
	if err != nil {
		log.Warn().Err(err).Str("account_number", account.Number).Msg("Failed to keep raw archive")
		return
	}
	log.Debug().Str("uri", uri).Msg("Kept raw archive")
}
