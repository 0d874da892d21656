package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/types"
	pkgbigquery "github.com/qrgenpro/qrgen-backend/pkg/bigquery"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
)

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter streams analytics rows into BigQuery. Rows are inserted
// before the Pub/Sub message is acked, so nothing is buffered.
type BigQueryWriter struct {
	client     inserter
	scans      string
	codeEvents string

	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

func New(client *pkgbigquery.Client, cfg config.BigQueryConfig) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	w := &BigQueryWriter{
		client:     client,
		scans:      strings.TrimSpace(cfg.ScansTable),
		codeEvents: strings.TrimSpace(cfg.CodeEventsTable),
		attempts:   max(cfg.InsertAttempts, 1),
		backoff:    cfg.InsertBackoff,
		maxBackoff: max(cfg.InsertMaxBackoff, cfg.InsertBackoff),
	}
	if w.scans == "" {
		return nil, errors.New("scans table is required")
	}
	if w.codeEvents == "" {
		return nil, errors.New("code events table is required")
	}
	return w, nil
}

func (w *BigQueryWriter) InsertScan(ctx context.Context, row types.ScanEventRow) error {
	return w.insert(ctx, w.scans, &row)
}

func (w *BigQueryWriter) InsertCodeEvent(ctx context.Context, row types.CodeEventRow) error {
	return w.insert(ctx, w.codeEvents, &row)
}

// insert retries transient failures with capped exponential backoff.
func (w *BigQueryWriter) insert(ctx context.Context, table string, rows ...any) error {
	wait := w.backoff
	for attempt := 1; ; attempt++ {
		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.attempts || !transient(err) {
			return fmt.Errorf("insert into %s (attempt %d): %w", table, attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, w.maxBackoff)
	}
}

// transient reports whether every underlying failure is worth retrying.
func transient(err error) bool {
	leaves := flatten(err)
	if len(leaves) == 0 {
		return false
	}
	for _, leaf := range leaves {
		if !transientLeaf(leaf) {
			return false
		}
	}
	return true
}

// flatten expands the BigQuery multi-error shapes into their individual errors.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	var (
		multi  cbigquery.MultiError
		put    cbigquery.PutMultiError
		rowErr *cbigquery.RowInsertionError
	)
	var inner []error
	switch {
	case errors.As(err, &put):
		for _, r := range put {
			inner = append(inner, flatten(r.Errors)...)
		}
	case errors.As(err, &rowErr):
		for _, e := range rowErr.Errors {
			inner = append(inner, flatten(e)...)
		}
	case errors.As(err, &multi):
		for _, e := range multi {
			inner = append(inner, flatten(e)...)
		}
	default:
		return []error{err}
	}
	return inner
}

func transientLeaf(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal,
			codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}
