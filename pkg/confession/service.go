package confession

import (
	"context"
	"os"

	"github.com/hushtape/confessionserver/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the listing window when the client names none.
	DefaultPageSize = 10

	// popularLimit is the fixed size of the popular listing.
	popularLimit = 10
)

type (
	// Service orchestrates create, list, delete, search and play-count
	// operations across the blob storage and the metadata store, keeping
	// the blob/record pair consistent.
	//
	// The two degraded states it can leave behind are deliberate
	// trade-offs, both counted and logged but never compensated:
	//   - create: blob written, record insert failed -> orphaned blob
	//   - delete: blob deleted, record delete failed -> orphaned record
	// Delete removes the blob first so that failures bias toward orphaned
	// records, which can still be found and garbage collected via their
	// code, unlike a dangling blob.
	//
	// TODO: reconciliation job sweeping orphaned blobs against the record
	// table, see the orphaned_blob_count metric.
	Service struct {
		l       *zap.Logger
		storage AudioStorage
		store   Store
	}
	Option func(*Service)
)

// Upload carries the input of one create operation.
type Upload struct {
	Audio       []byte
	Name        string
	Description string
	// Tags is the raw comma separated form. Normalization happens here,
	// not in the handler.
	Tags string
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, storage AudioStorage, store Store, opts ...Option) *Service {
	inst := &Service{
		l:       l.Named("confession"),
		storage: storage,
		store:   store,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Create stores the audio blob, inserts the metadata record and returns the
// deletion code. This is the only time the code is ever exposed.
//
// No store is touched until the input validates. If the record insert fails
// after the blob write, the blob is orphaned; there is no rollback.
func (s *Service) Create(ctx context.Context, up Upload) (string, error) {
	if len(up.Audio) == 0 {
		return "", newValidationError("no audio provided")
	}

	code, err := NewDeletionCode()
	if err != nil {
		return "", err
	}
	rec := &Record{
		Confession: Confession{
			Name:        up.Name,
			Description: up.Description,
			Tags:        NormalizeTags(up.Tags),
			AudioKey:    NewAudioKey(),
		},
		DeletionCode: code,
	}

	if err := s.storage.Write(ctx, rec.AudioKey, up.Audio); err != nil {
		return "", errors.Wrap(err, "failed to write audio blob")
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		metrics.OrphanedBlobCounter.WithLabelValues().Inc()
		s.l.Error("record insert failed after blob write, audio blob orphaned",
			zap.String("audioKey", rec.AudioKey),
			zap.Error(err),
		)
		return "", errors.Wrap(err, "failed to insert confession record")
	}

	s.l.Info("confession created",
		zap.Int64("id", rec.ID),
		zap.String("audioKey", rec.AudioKey),
	)
	return code, nil
}

// Delete removes the confession authorized by code: blob first, then record.
// An unknown code yields ErrNotFound, never a generic failure. When two
// deletes race on one code, the store-level lookup is consume-once and the
// loser observes ErrNotFound.
func (s *Service) Delete(ctx context.Context, code string) error {
	if code == "" {
		return newValidationError("no deletion code provided")
	}

	rec, err := s.store.ByDeletionCode(ctx, code)
	if err != nil {
		return err
	}

	// Blob before record: if this fails the record survives and the
	// operation stays retryable, and no record can end up pointing at a
	// deleted blob.
	if err := s.storage.Delete(ctx, rec.AudioKey); err != nil {
		return errors.Wrap(err, "failed to delete audio blob")
	}

	if err := s.store.DeleteByID(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
		metrics.OrphanedRecordCounter.WithLabelValues().Inc()
		s.l.Error("record delete failed after blob delete, record orphaned",
			zap.Int64("id", rec.ID),
			zap.Error(err),
		)
		return errors.Wrap(err, "failed to delete confession record")
	}

	s.l.Info("confession deleted", zap.Int64("id", rec.ID))
	return nil
}

// List returns one page of confessions, newest first. Pages start at 1.
// Callers detect the end of results by observing a short page.
func (s *Service) List(ctx context.Context, page, limit int) ([]Confession, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return s.store.List(ctx, (page-1)*limit, limit)
}

// Search returns all confessions whose name contains fragment, ignoring
// case. No matches is an empty result, not an error.
func (s *Service) Search(ctx context.Context, fragment string) ([]Confession, error) {
	if fragment == "" {
		return nil, newValidationError("no search fragment provided")
	}
	return s.store.Search(ctx, fragment)
}

// IncrementPlays advances the play counters for id. The increment is a
// single store-side statement; nothing here reads before writing.
func (s *Service) IncrementPlays(ctx context.Context, id int64) error {
	if id <= 0 {
		return newValidationError("no confession id provided")
	}
	return s.store.IncrementPlays(ctx, id)
}

// Popular returns the top confessions by daily plays.
func (s *Service) Popular(ctx context.Context) ([]Confession, error) {
	return s.store.Popular(ctx, popularLimit)
}

// Audio returns the stored audio bytes for a generated key. Keys that do not
// match the generated shape are reported as not found, the endpoint cannot
// probe arbitrary storage paths.
func (s *Service) Audio(ctx context.Context, key string) ([]byte, error) {
	if !ValidAudioKey(key) {
		return nil, ErrNotFound
	}
	data, err := s.storage.Read(ctx, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read audio blob")
	}
	return data, nil
}

// Close releases the storage and store backends.
func (s *Service) Close() error {
	return multierr.Append(s.store.Close(), s.storage.Close())
}
