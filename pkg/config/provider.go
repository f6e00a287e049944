package config

// Provider defines the interface for engine parameter sources
type Provider interface {
	// LoadParams loads the complete parameter set
	LoadParams() (*Params, error)

	// IsReadOnly reports whether the source supports writing back
	IsReadOnly() bool
	Close() error
}
