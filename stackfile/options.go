package stackfile

import "go.uber.org/zap"

// DefaultChunkSize is the number of records per chunk when no chunk
// size is configured.
const DefaultChunkSize = 2

// WriterOption configures a StackWriter.
type WriterOption func(*writerOptions)

type writerOptions struct {
	chunkSize int64
	compress  bool
	logger    *zap.Logger
}

func defaultWriterOptions() *writerOptions {
	return &writerOptions{
		chunkSize: DefaultChunkSize,
		logger:    zap.NewNop(),
	}
}

// WithChunkSize sets the number of records pre-allocated per growth step.
// Values less than one are ignored.
func WithChunkSize(n int) WriterOption {
	return func(o *writerOptions) {
		if n > 0 {
			o.chunkSize = int64(n)
		}
	}
}

// WithCompression stores chunk payloads gzip-compressed.
func WithCompression() WriterOption {
	return func(o *writerOptions) {
		o.compress = true
	}
}

// WithLogger sets the logger that receives the writer's warnings and
// debug output. The default discards everything.
func WithLogger(l *zap.Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

type openOptions struct {
	logger *zap.Logger
}

func defaultOpenOptions() *openOptions {
	return &openOptions{logger: zap.NewNop()}
}

// WithOpenLogger sets the logger used while reading the container.
func WithOpenLogger(l *zap.Logger) OpenOption {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
