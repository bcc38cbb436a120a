package video

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/phrazzld/videosnap/internal/domain"
)

// Status is the provider-independent state of a submitted job.
type Status string

// Normalized job statuses
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	// ErrUnknownProvider is returned when no provider is registered for an id.
	ErrUnknownProvider = errors.New("unknown video provider")

	// ErrSubmissionRejected is returned by Submit when the provider answered
	// but its acceptance signal says the job was not created.
	ErrSubmissionRejected = errors.New("video generation submission rejected")
)

// JobResult is the outcome of a status check. Locator is only set when
// Status is StatusCompleted; Detail carries the provider's own wording.
type JobResult struct {
	Status  Status
	Locator string
	Detail  string
}

// Provider submits image-to-video jobs and reports their progress.
// Implementations own all protocol details and must map every
// provider-specific status onto Status, treating unknown wording as running.
type Provider interface {
	// ID returns the identifier stored on tasks bound to this provider.
	ID() domain.ProviderID

	// Submit starts a job for image and prompt and returns the provider's job
	// id. Transport and protocol failures are returned as errors; a response
	// that rejects the job without an id returns ErrSubmissionRejected.
	Submit(ctx context.Context, image []byte, prompt string) (string, error)

	// CheckStatus polls a previously submitted job.
	CheckStatus(ctx context.Context, jobID string) (JobResult, error)
}

// Registry maps provider ids to implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.ProviderID]Provider
}

// NewRegistry creates a registry holding providers.
// It returns an error for duplicate or empty ids.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[domain.ProviderID]Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p to the registry.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}
	id := p.ID()
	if id == "" {
		return errors.New("provider id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Resolve returns the provider registered under id, or ErrUnknownProvider.
func (r *Registry) Resolve(id domain.ProviderID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id domain.ProviderID) bool {
	_, err := r.Resolve(id)
	return err == nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []domain.ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Downloader fetches the bytes behind a completed job's locator.
type Downloader interface {
	Download(ctx context.Context, locator string) ([]byte, error)
}
