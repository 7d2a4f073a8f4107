package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants or
// deployments can share one backend.
//
// Example usage:
//
//	// Keys of the staging API
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(kbHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(kbHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(resultKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(resultKey, opts)
}
