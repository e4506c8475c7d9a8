package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"

	"jordanella.com/overlay-capture/internal/capture"
	"jordanella.com/overlay-capture/internal/config"
	"jordanella.com/overlay-capture/internal/database"
	"jordanella.com/overlay-capture/internal/events"
	"jordanella.com/overlay-capture/internal/gate"
	"jordanella.com/overlay-capture/internal/logging"
	"jordanella.com/overlay-capture/internal/ocr"
	"jordanella.com/overlay-capture/internal/service"
	"jordanella.com/overlay-capture/internal/store"
	"jordanella.com/overlay-capture/internal/telemetry"
)

// Platform factories, replaced in tests.
var (
	newProvider   = capture.Default
	newRecognizer = ocr.Default
)

// app is the wired capture stack for one CLI invocation.
type app struct {
	dirs       config.Dirs
	logger     *logging.Logger
	settings   config.Store
	provider   capture.Provider
	recognizer ocr.Recognizer
	store      *store.Store
	db         *database.DB
	bus        *events.DefaultEventBus
	events     *events.EventLogger
	service    *service.Service
	surface    *service.Surface
	shutdown   func(context.Context) error
}

func newLogger(w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString(keyLogLevel))
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger("overlay-capture").SetOutput(w).SetMinLevel(level)
	switch format := strings.ToLower(viper.GetString(keyLogFormat)); format {
	case "", "text":
		logger.SetFormatter(&logging.TextFormatter{})
	case "json":
		logger.SetFormatter(&logging.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

func openSettings() (config.Store, error) {
	dirs, err := resolveDirs()
	if err != nil {
		return nil, err
	}
	return config.Open(settingsPath(dirs))
}

func newApp(ctx context.Context, stderr io.Writer) (_ *app, err error) {
	logger, err := newLogger(stderr)
	if err != nil {
		return nil, err
	}
	dirs, err := resolveDirs()
	if err != nil {
		return nil, err
	}
	settings, err := config.Open(settingsPath(dirs))
	if err != nil {
		return nil, err
	}

	a := &app{
		dirs:     dirs,
		logger:   logger,
		settings: settings,
		shutdown: func(context.Context) error { return nil },
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if viper.GetBool(keyTrace) {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceVersion: Version,
			UseStdout:      true,
			Writer:         stderr,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.shutdown = shutdown
	}

	a.store = store.New(store.Options{
		Dir:      dirs.CapturesDir(),
		MaxFiles: viper.GetInt(keyMaxFiles),
		Logger:   logger,
	})
	a.provider = newProvider(logger)
	a.recognizer = newRecognizer(ocr.Options{
		Binary:       viper.GetString(keyOCRBinary),
		Languages:    splitList(viper.GetString(keyOCRLanguages)),
		MaxDimension: viper.GetInt(keyOCRMaxDim),
		Logger:       logger,
	})

	a.bus = events.NewEventBus(32, logger.Named("events"))
	if a.events, err = events.NewEventLogger(a.bus, logger, ""); err != nil {
		return nil, err
	}

	deps := service.Deps{
		Gate:       gate.New(settings, logger),
		Provider:   a.provider,
		Recognizer: a.recognizer,
		Store:      a.store,
		Bus:        a.bus,
		Logger:     logger,
	}
	if viper.GetBool(keyJournal) {
		if err := a.openJournal(); err != nil {
			// The journal is an audit trail; captures proceed without it.
			logger.ErrorWithContext("journal unavailable", err, map[string]interface{}{
				"path": dirs.JournalPath(),
			})
		} else {
			deps.Journal = a.db
		}
	}

	a.service, err = service.New(deps,
		service.WithMaxDimension(viper.GetInt(keyMaxDimension)),
		service.WithTracer(telemetry.Tracer()),
	)
	if err != nil {
		return nil, err
	}
	a.surface = service.NewSurface(a.service)
	return a, nil
}

func (a *app) openJournal() error {
	db, err := database.Open(a.dirs.JournalPath())
	if err != nil {
		return err
	}
	db.SetLogger(a.logger)
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return err
	}
	a.db = db
	return nil
}

// Close flushes pending events and spans and releases the journal.
func (a *app) Close() error {
	if a.bus != nil {
		a.bus.Stop()
	}
	if a.events != nil {
		a.events.Close()
	}
	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = err
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
