// Package export assembles IC packets: the deal, its current memo and its
// latest analysis bundled into one JSON document, stored in object storage
// and tracked with a presigned download link.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/memo"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// Record is one stored IC packet export.
type Record struct {
	ID        common.ID        `json:"id"`
	DealID    common.ID        `json:"deal_id"`
	MemoID    common.ID        `json:"memo_id"`
	ObjectKey string           `json:"object_key"`
	URL       string           `json:"url"`
	SizeBytes int64            `json:"size_bytes"`
	CreatedAt common.Timestamp `json:"created_at"`
}

// Repository persists export records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	ListByDeal(ctx context.Context, dealID common.ID) ([]*Record, error)
}

// ObjectStore is the object-storage contract the packet is written through.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Packet is the exported document layout.
type Packet struct {
	Deal        *deal.Deal           `json:"deal"`
	Memo        *memo.Memo           `json:"memo"`
	Analysis    *deal.AnalysisRecord `json:"analysis,omitempty"`
	GeneratedAt common.Timestamp     `json:"generated_at"`
}

// Service builds and stores IC packets.
type Service struct {
	deals         deal.Repository
	memos         memo.Repository
	analyses      deal.AnalysisRepository
	store         ObjectStore
	records       Repository
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewService wires the export service.  presignExpiry <= 0 defaults to 24h.
func NewService(
	deals deal.Repository,
	memos memo.Repository,
	analyses deal.AnalysisRepository,
	store ObjectStore,
	records Repository,
	presignExpiry time.Duration,
	logger logging.Logger,
) *Service {
	if presignExpiry <= 0 {
		presignExpiry = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		deals:         deals,
		memos:         memos,
		analyses:      analyses,
		store:         store,
		records:       records,
		presignExpiry: presignExpiry,
		logger:        logger.Named("export"),
	}
}

// Export assembles the deal's packet, stores it and records the export.  The
// deal and memo are required; a missing analysis is exported as null rather
// than blocking the packet.
func (s *Service) Export(ctx context.Context, dealID common.ID) (*Record, error) {
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "object storage is not configured")
	}
	d, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	m, err := s.memos.GetByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	packet := Packet{Deal: d, Memo: m, GeneratedAt: common.Now()}
	if analysis, err := s.analyses.GetByDeal(ctx, dealID); err == nil {
		packet.Analysis = analysis
	} else if !errors.IsNotFound(err) {
		s.logger.Warn("analysis load failed, exporting without it",
			logging.String("deal_id", string(dealID)), logging.Err(err))
	}

	data, err := json.Marshal(packet)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal IC packet")
	}

	key := fmt.Sprintf("packets/%s/%d.json", dealID, time.Now().UTC().Unix())
	if err := s.store.Put(ctx, key, data, "application/json"); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "store IC packet")
	}
	url, err := s.store.PresignedURL(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "presign IC packet")
	}

	rec := &Record{
		ID:        common.NewID(),
		DealID:    dealID,
		MemoID:    m.ID,
		ObjectKey: key,
		URL:       url,
		SizeBytes: int64(len(data)),
		CreatedAt: common.Now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "record IC packet export")
	}

	s.logger.Info("IC packet exported",
		logging.String("deal_id", string(dealID)),
		logging.String("object_key", key),
		logging.Int64("size_bytes", rec.SizeBytes))
	return rec, nil
}

// History lists a deal's past exports.
func (s *Service) History(ctx context.Context, dealID common.ID) ([]*Record, error) {
	return s.records.ListByDeal(ctx, dealID)
}
