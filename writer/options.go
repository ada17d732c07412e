package writer

import (
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/robert-malhotra/h5stream/config"
	"github.com/robert-malhotra/h5stream/typedesc"
)

// Option configures a Writer.
type Option func(*options)

type options struct {
	dir               string
	suffix            string
	ext               string
	chunkLen          uint32
	superblockVersion int
	sync              bool
	registry          *typedesc.Registry
	logger            *slog.Logger
	level             *slog.Level
	meterProvider     metric.MeterProvider
}

func defaultOptions() *options {
	return &options{
		dir:               config.DefaultDir,
		suffix:            config.DefaultSuffix,
		ext:               config.DefaultExtension,
		chunkLen:          config.DefaultChunkLen,
		superblockVersion: config.DefaultSuperblockVersion,
	}
}

// resolve fills in the dependencies left unset.
func (o *options) resolve() {
	if o.registry == nil {
		o.registry = typedesc.Default
	}
	if o.logger == nil {
		if o.level != nil {
			o.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *o.level}))
		} else {
			o.logger = slog.Default()
		}
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}
}

// WithDir sets the directory the file is created in.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithSuffix sets the file name suffix, "DxData" by default.
func WithSuffix(suffix string) Option {
	return func(o *options) {
		o.suffix = suffix
	}
}

// WithExtension sets the file extension, "h5" by default.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.ext = ext
	}
}

// WithChunkLen sets the chunk length of every dataset the writer creates.
// Zero keeps the default of 8. New rejects lengths above hdf5.MaxChunkLen.
func WithChunkLen(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkLen = n
		}
	}
}

// WithSync makes every append fsync the file.
func WithSync(sync bool) Option {
	return func(o *options) {
		o.sync = sync
	}
}

// WithSuperblockVersion selects superblock version 2 or 3.
func WithSuperblockVersion(v int) Option {
	return func(o *options) {
		o.superblockVersion = v
	}
}

// WithRegistry sets the descriptor registry, typedesc.Default by default.
func WithRegistry(r *typedesc.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithLogger sets the logger, slog.Default() by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMeterProvider sets the meter provider, the global one by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithConfig applies a loaded configuration. Options after it override it.
// Its log level takes effect only when no logger is given.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.dir = cfg.Output.Dir
		o.suffix = cfg.Output.Suffix
		o.ext = cfg.Output.Extension
		if cfg.Dataset.ChunkLen > 0 {
			o.chunkLen = uint32(cfg.Dataset.ChunkLen)
		}
		o.superblockVersion = cfg.File.SuperblockVersion
		o.sync = cfg.File.Sync
		if level, err := cfg.Log.SlogLevel(); err == nil {
			o.level = &level
		}
	}
}
