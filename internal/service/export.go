package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var exportTracer = otel.Tracer("service/export")

var bidCSVHeader = []string{
	"bid_id", "route_id", "origin", "destination", "vendor_id", "vendor_email",
	"base_rate", "fsc", "accessorials_total", "total", "status", "submitted_at",
}

// WriteBidsCSV writes one header row and one row per bid.
func WriteBidsCSV(w io.Writer, bids []domain.Bid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bidCSVHeader); err != nil {
		return err
	}
	for _, b := range bids {
		if err := cw.Write([]string{
			b.ID,
			b.RouteID,
			b.OriginID,
			b.DestinationID,
			b.VendorID,
			b.VendorEmail,
			money(b.BaseRate),
			strconv.FormatFloat(b.FSC, 'f', -1, 64),
			money(b.Accessorials.Sum()),
			money(b.Total),
			string(b.Status),
			b.SubmittedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportService renders bids as CSV and uploads exports to object storage.
type ExportService struct {
	store   port.Store
	objects port.ObjectStore
	prefix  string
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates an export service. objects may be nil when no
// bucket is configured; uploads then fail with a validation error.
func NewExportService(store port.Store, objects port.ObjectStore, prefix string, metrics *observability.Metrics, logger *zap.Logger) *ExportService {
	return &ExportService{
		store:   store,
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (e *ExportService) bids(ctx context.Context, originID string) ([]domain.Bid, error) {
	var (
		bids []domain.Bid
		err  error
	)
	if originID == "" {
		bids, err = e.store.ListBids(ctx)
	} else {
		bids, err = e.store.ListBidsByOrigin(ctx, originID)
	}
	if err != nil {
		return nil, err
	}
	return domain.SortBids(bids, domain.SortAsc), nil
}

// WriteBids streams the bids, optionally of one origin, as CSV to w.
func (e *ExportService) WriteBids(ctx context.Context, w io.Writer, originID string) error {
	ctx, span := exportTracer.Start(ctx, "ExportService.WriteBids")
	defer span.End()

	bids, err := e.bids(ctx, originID)
	if err != nil {
		return err
	}
	return WriteBidsCSV(w, bids)
}

// ExportBids uploads a CSV snapshot of the bids and returns where it lives.
func (e *ExportService) ExportBids(ctx context.Context, originID string) (*domain.ExportResult, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.ExportBids")
	defer span.End()
	span.SetAttributes(attribute.String("origin.id", originID))

	if e.objects == nil {
		return nil, &domain.ErrValidation{Field: "bucket", Message: "export bucket not configured"}
	}

	bids, err := e.bids(ctx, originID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteBidsCSV(&buf, bids); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	name := fmt.Sprintf("bids-%s.csv", e.now().UTC().Format("20060102T150405Z"))
	if originID != "" {
		name = fmt.Sprintf("bids-%s-%s.csv", originID, e.now().UTC().Format("20060102T150405Z"))
	}
	key := name
	if e.prefix != "" {
		key = e.prefix + "/" + name
	}

	url, err := e.objects.Put(ctx, key, "text/csv", &buf)
	if err != nil {
		e.metrics.IncrExport("error")
		e.logger.Error("bid export upload failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	e.metrics.IncrExport("success")
	e.logger.Info("bids exported", zap.String("key", key), zap.Int("rows", len(bids)))
	return &domain.ExportResult{Key: key, URL: url, Rows: len(bids)}, nil
}
