package metrics

// StaticProvider returns a fixed snapshot on every call. It serves two
// roles: a deterministic provider for tests, and a degraded-environment
// provider when host probing is unavailable or undesirable.
type StaticProvider struct {
	Fixed Snapshot
}

// NewStaticProvider returns a provider that always reports snap.
func NewStaticProvider(snap Snapshot) *StaticProvider {
	return &StaticProvider{Fixed: snap}
}

// NewDefaultProvider returns a provider reporting the safe default
// snapshot.
func NewDefaultProvider() *StaticProvider {
	return &StaticProvider{Fixed: DefaultSnapshot()}
}

// Snapshot implements Provider.
func (p *StaticProvider) Snapshot() Snapshot {
	return p.Fixed
}
