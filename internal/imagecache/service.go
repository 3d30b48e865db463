package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"apod/internal/apod"
	"apod/internal/config"
	"apod/internal/fileutil"
	"apod/internal/logging"
	"apod/internal/services"
)

// Fetcher retrieves the APOD entry for a date along with its image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) (*apod.Item, error)
}

// Options locates the cache on disk.
type Options struct {
	// Dir receives the image files.
	Dir string
	// DBPath is the index database file.
	DBPath string
}

// OptionsFromConfig derives cache locations from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{Dir: cfg.Paths.CacheDir, DBPath: cfg.DatabasePath()}
}

func (o Options) absolute() (Options, error) {
	dir, err := filepath.Abs(o.Dir)
	if err != nil {
		return o, err
	}
	o.Dir = dir
	if strings.TrimSpace(o.DBPath) != "" {
		if o.DBPath, err = filepath.Abs(o.DBPath); err != nil {
			return o, err
		}
	}
	return o, nil
}

// Service runs the ensure-cached pipeline.
type Service struct {
	opts    Options
	index   *Index
	fetcher Fetcher
	logger  *slog.Logger
}

// New builds a service around an already opened index. A relative Dir is
// made absolute when possible.
func New(opts Options, index *Index, fetcher Fetcher, logger *slog.Logger) *Service {
	if abs, err := opts.absolute(); err == nil {
		opts = abs
	}
	return &Service{
		opts:    opts,
		index:   index,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "imagecache"),
	}
}

// Open opens the index described by opts and returns a ready service.
// Relative locations are resolved against the working directory so indexed
// file paths stay absolute. The caller owns the service and must Close it.
func Open(ctx context.Context, opts Options, fetcher Fetcher, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open", "cache directory is empty", nil)
	}
	opts, err := opts.absolute()
	if err != nil {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open", "resolve cache paths", err)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorageInit, "imagecache", "open", "create cache directory", err)
	}
	index, err := OpenIndex(ctx, opts.DBPath, logger)
	if err != nil {
		return nil, err
	}
	return New(opts, index, fetcher, logger), nil
}

// Index exposes the underlying record store for read-only callers.
func (s *Service) Index() *Index {
	return s.index
}

// Close releases the index.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	return s.index.Close()
}

// EnsureCached makes sure the image published on date is stored and indexed
// and returns its record id. On any failure it returns 0 together with an
// error classified by one of the services markers.
func (s *Service) EnsureCached(ctx context.Context, date time.Time) (int64, error) {
	ctx = services.WithAPODDate(ctx, apod.FormatDate(date))
	logger := logging.WithContext(ctx, s.logger)

	if s.fetcher == nil {
		return 0, services.Wrap(services.ErrConfiguration, "imagecache", "ensure cached", "no fetcher configured", nil)
	}
	item, err := s.fetcher.Fetch(ctx, date)
	if err != nil {
		if !errors.Is(err, services.ErrFetch) {
			err = services.Wrap(services.ErrFetch, "imagecache", "fetch", "", err)
		}
		logging.WarnWithContext(logger, "apod fetch failed", "fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, "image not cached"),
			logging.String(logging.FieldErrorHint, "check network access and the api key"),
		)
		return 0, err
	}
	return s.Store(ctx, item)
}

// Store runs the dedup pipeline for an already fetched item. Identical bytes
// always resolve to the same record regardless of title or URL.
func (s *Service) Store(ctx context.Context, item *apod.Item) (int64, error) {
	if item == nil || len(item.Data) == 0 {
		return 0, services.Wrap(services.ErrFetch, "imagecache", "store", "fetch returned no image data", nil)
	}
	if item.Info.Date != "" {
		ctx = services.WithAPODDate(ctx, item.Info.Date)
	}
	logger := logging.WithContext(ctx, s.logger)

	digest := ContentHash(item.Data)
	if id, found, err := s.index.FindByHash(ctx, digest); err != nil {
		return 0, err
	} else if found {
		logger.Info("image already cached",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.RecordID(id),
			logging.ContentHash(digest),
		)
		return id, nil
	}

	target, reused, err := s.placeFile(item, digest)
	if err != nil {
		logging.ErrorWithContext(logger, "image write failed", "file_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the cache directory"),
		)
		return 0, err
	}

	id, err := s.index.Insert(ctx, Record{
		Title:       item.Info.Title,
		Explanation: item.Info.Explanation,
		FilePath:    target,
		ContentHash: digest,
	})
	if errors.Is(err, ErrDuplicateHash) {
		return s.resolveRace(ctx, logger, digest, target, reused)
	}
	if err != nil {
		if !reused {
			_ = os.Remove(target)
		}
		logging.ErrorWithContext(logger, "index insert failed", "index_insert_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Path(target),
		)
		return 0, err
	}

	logger.Info("image cached",
		logging.String(logging.FieldEventType, "cache_store"),
		logging.RecordID(id),
		logging.String("title", item.Info.Title),
		logging.Path(target),
		logging.ContentHash(digest),
	)
	return id, nil
}

// Resolve looks a record up by numeric id or, failing that, by title.
func (s *Service) Resolve(ctx context.Context, ref string) (*Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "imagecache", "resolve", "empty id or title", nil)
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		rec, err := s.index.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	rec, err := s.index.GetByTitle(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "imagecache", "resolve", fmt.Sprintf("no cached image matches %q", ref), nil)
	}
	return rec, nil
}

// placeFile writes data under its title-derived path. When another image
// already occupies that name the content hash is appended so no indexed file
// is ever overwritten. A file already holding identical bytes is reused.
// Names are claimed exclusively, so concurrent writers with different bytes
// never land on the same file.
func (s *Service) placeFile(item *apod.Item, digest string) (string, bool, error) {
	base := ResolvePath(s.opts.Dir, item.Info.Title, item.SourceURL)
	candidates := []string{base, withSuffix(base, "-"+digest[:12]), withSuffix(base, "-"+digest)}

	for _, candidate := range candidates {
		if sameContent(candidate, digest) {
			return candidate, true, nil
		}
		err := fileutil.WriteFileExclusive(candidate, item.Data, 0o644)
		switch {
		case err == nil:
			return candidate, false, nil
		case errors.Is(err, fs.ErrExist):
			if sameContent(candidate, digest) {
				return candidate, true, nil
			}
		default:
			return "", false, services.Wrap(services.ErrFileWrite, "imagecache", "write image", candidate, err)
		}
	}

	// The digest-named file exists with other bytes, so it is damaged.
	target := candidates[len(candidates)-1]
	if err := fileutil.WriteFileAtomic(target, item.Data, 0o644); err != nil {
		return "", false, services.Wrap(services.ErrFileWrite, "imagecache", "write image", target, err)
	}
	return target, false, nil
}

func sameContent(path, digest string) bool {
	existing, err := fileutil.HashFile(path)
	return err == nil && existing == digest
}

// resolveRace handles a concurrent writer indexing the same content first.
func (s *Service) resolveRace(ctx context.Context, logger *slog.Logger, digest, target string, reused bool) (int64, error) {
	id, found, err := s.index.FindByHash(ctx, digest)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, services.Wrap(services.ErrStorageWrite, "imagecache", "insert", "duplicate hash reported but no record found", nil)
	}
	if rec, err := s.index.GetByID(ctx, id); err == nil && rec != nil && rec.FilePath != target && !reused {
		_ = os.Remove(target)
	}
	logger.Info("image cached by concurrent writer",
		logging.String(logging.FieldEventType, "cache_race"),
		logging.RecordID(id),
		logging.ContentHash(digest),
	)
	return id, nil
}
