package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers ordered by priority.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string][]driven.Normaliser)}
}

// Register adds a normaliser under each of its extensions.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Lookup returns the highest-priority normaliser for ext.
func (r *Registry) Lookup(ext string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byExt[strings.ToLower(ext)]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Normalise extracts text from raw with the normaliser registered for its
// extension. The sniffed content type must be one the normaliser accepts.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawFile) (driven.Normaliser, *driven.NormaliseResult, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: nil file", domain.ErrExtractionFailed)
	}

	n, ok := r.Lookup(raw.Ext)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, raw.Ext)
	}

	if !acceptsMIME(n, raw.MIMEType) {
		return n, nil, fmt.Errorf("%w: %s content is %s", domain.ErrUnsupportedFormat, raw.Ext, raw.MIMEType)
	}

	result, err := n.Normalise(ctx, raw)
	if err != nil {
		return n, nil, err
	}
	if result.Method == "" {
		result.Method = n.Name()
	}
	return n, result, nil
}

// acceptsMIME reports whether contentType, or one of its ancestors in
// the mimetype hierarchy, is supported by n. JSON and HTML descend from
// text/plain, for example. An empty type is accepted.
func acceptsMIME(n driven.Normaliser, contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	accepted := n.SupportedMIMETypes()
	for _, t := range accepted {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	for m := mimetype.Lookup(mediaType); m != nil; m = m.Parent() {
		for _, t := range accepted {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}
