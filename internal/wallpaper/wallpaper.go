package wallpaper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"apod/internal/config"
	"apod/internal/logging"
	"apod/internal/services"
)

// Setter applies an image file as the desktop background.
type Setter interface {
	Set(ctx context.Context, path string) error
}

// New returns the platform setter described by cfg. Disabled integration
// yields a setter that always reports services.ErrUnsupported.
func New(cfg *config.Config, logger *slog.Logger) Setter {
	logger = logging.NewComponentLogger(logger, "wallpaper")
	if cfg == nil || !cfg.Wallpaper.Enabled {
		return disabled{}
	}
	return &loggingSetter{next: newPlatformSetter(cfg.Wallpaper.Command), logger: logger}
}

type disabled struct{}

func (disabled) Set(context.Context, string) error {
	return services.Wrap(services.ErrUnsupported, "wallpaper", "set", "wallpaper integration is disabled in config", nil)
}

type loggingSetter struct {
	next   Setter
	logger *slog.Logger
}

func (s *loggingSetter) Set(ctx context.Context, path string) error {
	abs, err := checkImage(path)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, s.logger)
	if err := s.next.Set(ctx, abs); err != nil {
		logging.WarnWithContext(logger, "set wallpaper failed", "wallpaper_failed",
			logging.Path(abs),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, "desktop background unchanged"),
			logging.String(logging.FieldErrorHint, "check the [wallpaper] command in config"),
		)
		return err
	}
	logger.Info("wallpaper set",
		logging.String(logging.FieldEventType, "wallpaper_set"),
		logging.Path(abs),
	)
	return nil
}

func checkImage(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "wallpaper", "set", "resolve path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "wallpaper", "set", abs, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "wallpaper", "set", abs+" is a directory", nil)
	}
	return abs, nil
}
