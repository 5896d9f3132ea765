package ingest

// Defaults and limits for ingest configuration.
const (
	defaultBufferSize int = 64
	maxBufferLength   int = 4096 // maximum length of the operation channel
	defaultBatchSize  int = 32
)

type config struct {
	bufferSize         int
	batchSize          int
	abortOnUnsupported bool
	verifyOnFinish     bool
}

func defaultConfig() config {
	return config{
		bufferSize: defaultBufferSize,
		batchSize:  defaultBatchSize,
	}
}

func configure(opts []Option) config {
	conf := defaultConfig()
	for _, opt := range opts {
		opt(&conf)
	}
	return conf
}

// Option configures a pipeline or a document load.
type Option func(*config)

// BufferSize sets the capacity of the operation channel between producer
// and tree owner. A producer blocks when the channel is full. Values are
// clamped to [1…4096].
func BufferSize(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		} else if n > maxBufferLength {
			n = maxBufferLength
		}
		c.bufferSize = n
	}
}

// BatchSize sets the maximum number of operations the tree owner applies
// within a single mutation phase. Readers get a chance to read the
// document between batches.
func BatchSize(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.batchSize = n
	}
}

// AbortOnUnsupported makes the load fail on the first unsupported
// operation. By default, unsupported operations only flag the document as
// incomplete.
func AbortOnUnsupported(abort bool) Option {
	return func(c *config) {
		c.abortOnUnsupported = abort
	}
}

// VerifyOnFinish makes the tree owner check all tree invariants after the
// producer has finished the document. A violation fails the load.
func VerifyOnFinish(verify bool) Option {
	return func(c *config) {
		c.verifyOnFinish = verify
	}
}
