//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend suitable for headless containers.
func New() Backend {
	return &headlessBackend{
		watchCh: make(chan struct{}),
	}
}

// headlessBackend is a no-op clipboard backend for environments without a
// display server (containers, CI, etc.).
type headlessBackend struct {
	watchCh chan struct{}
}

func (b *headlessBackend) Name() string                  { return "headless (no-op)" }
func (b *headlessBackend) Read() (map[string]any, error) { return nil, nil }
func (b *headlessBackend) Write(_ map[string]any) error  { return nil }
func (b *headlessBackend) Watch() <-chan struct{}        { return b.watchCh }
func (b *headlessBackend) Close()                        {}
