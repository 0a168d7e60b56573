package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
)

func TestNarrative_Disabled(t *testing.T) {
	f := newFixture(t)
	svc := NewNarrativeService(f.analysis, f.store, f.store, nil, zap.NewNop())

	assert.False(t, svc.Enabled())
	_, err := svc.Generate(context.Background(), "UCa", "", "")
	assert.ErrorIs(t, err, domain.ErrNarrativeOff)
}

func TestNarrative_GenerateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.provider.feeds["UCa"] = feed("UCa", 12, 1000)
	_, err := f.channels.Track(ctx, "UCa", "Alpha Channel", false)
	require.NoError(t, err)

	gen := &fakeGenerator{}
	svc := NewNarrativeService(f.analysis, f.store, f.store, gen, zap.NewNop())

	n, err := svc.Generate(ctx, "UCa", "  thumbnails  ", "")
	require.NoError(t, err)

	assert.Equal(t, "thumbnails", n.Topic)
	assert.Equal(t, "fake-fallback", n.Model, "the model that answered is recorded")
	assert.Equal(t, "# Draft for UCa", n.Content)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Alpha Channel", gen.last.ChannelTitle)
	assert.Nil(t, gen.last.Comparison)

	list, err := svc.List(ctx, "UCa", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestNarrative_WithCompetitor(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 12, 1000)
	f.provider.feeds["UCb"] = feed("UCb", 12, 2000)

	gen := &fakeGenerator{}
	svc := NewNarrativeService(f.analysis, f.store, f.store, gen, zap.NewNop())

	_, err := svc.Generate(context.Background(), "UCa", "", "UCb")
	require.NoError(t, err)

	require.NotNil(t, gen.last.Comparison)
	assert.Equal(t, "UCb", gen.last.Comparison.CompetitorChannelID)
	assert.Equal(t, "UCa", gen.last.Analysis.ChannelID)
}

func TestNarrative_GeneratorFailureSavesNothing(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 12, 1000)

	gen := &fakeGenerator{err: errors.Join(domain.ErrUnavailable, errors.New("all models failed"))}
	svc := NewNarrativeService(f.analysis, f.store, f.store, gen, zap.NewNop())

	_, err := svc.Generate(context.Background(), "UCa", "", "")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	list, err := svc.List(context.Background(), "UCa", 500)
	require.NoError(t, err)
	assert.Empty(t, list)
}
