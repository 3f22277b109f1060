// Package template renders named message templates with {{key}} placeholders.
package template

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// ErrTemplateNotFound is returned when rendering or fetching an unregistered template.
var ErrTemplateNotFound = errors.New("template: template not found")

// Registry is a concurrency-safe set of named templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]string
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		templates: make(map[string]string),
		logger:    logger,
	}
}

// Register stores text under name. A later registration replaces an earlier one.
func (r *Registry) Register(name, text string) {
	r.mu.Lock()
	_, replaced := r.templates[name]
	r.templates[name] = text
	r.mu.Unlock()

	r.logger.Debug("template registered", "name", name, "replaced", replaced)
}

// Get returns the raw text of a template.
func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text, ok := r.templates[name]

	return text, ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)

	return names
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.templates)
}

// Render substitutes every {{key}} in the named template with vars[key].
// Placeholders without a matching variable are left as-is.
func (r *Registry) Render(name string, vars map[string]string) (string, error) {
	text, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	return Render(text, vars), nil
}

// Render substitutes every {{key}} in text with vars[key].
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}

	// Sorted keys keep replacement deterministic when one key prefixes another.
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}

	return strings.NewReplacer(pairs...).Replace(text)
}
