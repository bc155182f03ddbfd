// Package clipboard writes editor buffers to the system clipboard.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// Writer puts text on a clipboard
type Writer interface {
	WriteAll(text string) error
}

type systemWriter struct{}

func (systemWriter) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Provider copies text best-effort: a missing clipboard is a silent no-op
type Provider struct {
	writer    Writer
	supported bool
	logger    *zap.Logger

	mu      sync.Mutex
	history []string
	limit   int
}

// NewProvider creates a provider backed by the system clipboard
func NewProvider(logger *zap.Logger) *Provider {
	return NewProviderWithWriter(systemWriter{}, !clipboard.Unsupported, logger)
}

// NewProviderWithWriter creates a provider backed by w
func NewProviderWithWriter(w Writer, supported bool, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		writer:    w,
		supported: supported,
		logger:    logger,
		limit:     20,
	}
}

// Supported reports whether a clipboard is available
func (p *Provider) Supported() bool {
	return p.supported
}

// Copy writes text and reports whether it reached the clipboard
func (p *Provider) Copy(text string) bool {
	if !p.supported {
		return false
	}
	if err := p.writer.WriteAll(text); err != nil {
		p.logger.Debug("Clipboard write failed", zap.Error(err))
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, text)
	if len(p.history) > p.limit {
		p.history = p.history[len(p.history)-p.limit:]
	}
	return true
}

// History returns copied texts, oldest first
func (p *Provider) History() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.history...)
}
