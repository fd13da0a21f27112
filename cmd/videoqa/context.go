package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"videoqa/internal/catalog"
	"videoqa/internal/config"
	"videoqa/internal/diagnostics"
	"videoqa/internal/logging"
	"videoqa/internal/videoservice"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// loggerValue builds the file logger once. A logger that cannot be opened
// degrades to a no-op logger so commands still run.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg, c.verbose())
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) client() (*videoservice.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return videoservice.NewFromConfig(cfg, c.loggerValue()), nil
}

// openJournal returns nil when diagnostics are disabled or the journal is
// unusable; failures to record must never block a command.
func (c *commandContext) openJournal() *diagnostics.Journal {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	journal, err := diagnostics.Open(cfg, c.loggerValue())
	if err != nil {
		if !errors.Is(err, diagnostics.ErrDisabled) {
			logging.ErrorWithContext(c.loggerValue(), "diagnostics journal unavailable", "diagnostics_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `videoqa diagnostics clear` or delete the journal file"),
				logging.String(logging.FieldImpact, "service failures will not be recorded"),
			)
		}
		return nil
	}
	return journal
}

// withCatalog mounts a catalog for the duration of fn.
func (c *commandContext) withCatalog(ctx context.Context, fn func(*catalog.Catalog) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	opts := []catalog.Option{catalog.WithLogger(c.loggerValue())}
	journal := c.openJournal()
	if journal != nil {
		defer journal.Close()
		opts = append(opts, catalog.WithRecorder(journal))
	}

	cat := catalog.New(client, opts...)
	defer cat.Close()
	cat.Mount(ctx)
	return fn(cat)
}

// withJournal opens the journal for inspection commands. Unlike openJournal,
// errors are returned to the user.
func (c *commandContext) withJournal(fn func(*diagnostics.Journal) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	journal, err := diagnostics.Open(cfg, c.loggerValue())
	if err != nil {
		return err
	}
	defer journal.Close()
	return fn(journal)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
