package video_test

import (
	"context"
	"testing"

	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	id domain.ProviderID
}

func (s stubProvider) ID() domain.ProviderID { return s.id }

func (s stubProvider) Submit(ctx context.Context, image []byte, prompt string) (string, error) {
	return "job", nil
}

func (s stubProvider) CheckStatus(ctx context.Context, jobID string) (video.JobResult, error) {
	return video.JobResult{Status: video.StatusRunning}, nil
}

func TestRegistry_Resolve(t *testing.T) {
	minimax := stubProvider{id: domain.ProviderMinimaxVideo01}
	other := stubProvider{id: "acme/v2"}

	r, err := video.NewRegistry(minimax, other)
	require.NoError(t, err)

	p, err := r.Resolve(domain.ProviderMinimaxVideo01)
	require.NoError(t, err)
	assert.Equal(t, minimax, p)

	assert.True(t, r.Has("acme/v2"))
	assert.Equal(t, []domain.ProviderID{"acme/v2", domain.ProviderMinimaxVideo01}, r.IDs())
}

func TestRegistry_UnknownProviderFailsLoudly(t *testing.T) {
	r, err := video.NewRegistry(stubProvider{id: domain.ProviderMinimaxVideo01})
	require.NoError(t, err)

	// no prefix matching: a near miss is still unknown
	for _, id := range []domain.ProviderID{"minimax", "minimax/video-01-live", ""} {
		_, err := r.Resolve(id)
		assert.ErrorIs(t, err, video.ErrUnknownProvider, string(id))
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	_, err := video.NewRegistry(stubProvider{id: "a"}, stubProvider{id: "a"})
	assert.Error(t, err)

	_, err = video.NewRegistry(stubProvider{id: ""})
	assert.Error(t, err)

	r, err := video.NewRegistry()
	require.NoError(t, err)
	assert.Error(t, r.Register(nil))
}
