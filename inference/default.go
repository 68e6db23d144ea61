package inference

import (
	"sync"
)

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Configure installs cfg as the process-wide default client, replacing
// any previous one. The previous client's idle connections are closed
// before the swap so reconfiguration does not leak pooled sockets.
func Configure(cfg Config) error {
	client, err := NewClient(cfg)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		defaultClient.Close()
	}
	defaultClient = client
	return nil
}

// Default returns the process-wide client, lazily creating one against
// localhost with standard settings on first use.
func Default() (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		client, err := NewClient(Config{Host: "localhost", Port: DefaultPort})
		if err != nil {
			return nil, err
		}
		defaultClient = client
	}
	return defaultClient, nil
}

// Reset drops the default client, closing its idle connections. The
// next Default call creates a fresh one. Intended for tests.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		defaultClient.Close()
		defaultClient = nil
	}
}
