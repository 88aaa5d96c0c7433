package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/repo"
)

type fakeTxService struct{}

func (s *fakeTxService) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLinkRepo struct {
	mappings  []*entity.LinkMapping
	createErr error
}

func (r *fakeLinkRepo) Create(_ context.Context, mapping *entity.LinkMapping) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.mappings = append(r.mappings, mapping)
	return mapping.GetID(), nil
}

func (r *fakeLinkRepo) GetByIDAndTrackingID(_ context.Context, id, trackingID string) (*entity.LinkMapping, error) {
	for _, m := range r.mappings {
		if m.GetID() == id && m.GetTrackingID() == trackingID {
			return m, nil
		}
	}
	return nil, repo.ErrLinkMappingNotFound
}

func (r *fakeLinkRepo) RecordClick(_ context.Context, _ string) error {
	return nil
}

func newTestRewriter(linkRepo repo.LinkRepo) ContentRewriter {
	return NewContentRewriter(config.Tracking{
		BaseURL: "https://track.example.com/api/v1",
	}, &fakeTxService{}, linkRepo)
}

func TestRewrite_ReplacesLinks(t *testing.T) {
	var (
		linkRepo = &fakeLinkRepo{}
		r        = newTestRewriter(linkRepo)
		html     = `<html><body><a href="https://example.com/pricing">Pricing</a></body></html>`
	)

	out := r.Rewrite(context.Background(), html, "tracking-1", "pixel-1")

	require.Len(t, linkRepo.mappings, 1)
	mapping := linkRepo.mappings[0]
	assert.Equal(t, "tracking-1", mapping.GetTrackingID())
	assert.Equal(t, "https://example.com/pricing", mapping.GetOriginalURL())

	wantHref := fmt.Sprintf("https://track.example.com/api/v1/track/click/tracking-1/%s", mapping.GetID())
	assert.Contains(t, out, wantHref)
	assert.Equal(t, wantHref, mapping.GetTrackingURL())
	assert.NotContains(t, out, `href="https://example.com/pricing"`)
}

func TestRewrite_SkipsNonTrackableLinks(t *testing.T) {
	var (
		linkRepo = &fakeLinkRepo{}
		r        = newTestRewriter(linkRepo)
		html     = `<html><body>` +
			`<a href="mailto:hi@example.com">Mail</a>` +
			`<a href="#section">Anchor</a>` +
			`<a href="javascript:void(0)">JS</a>` +
			`</body></html>`
	)

	out := r.Rewrite(context.Background(), html, "tracking-1", "pixel-1")

	assert.Empty(t, linkRepo.mappings)
	assert.Contains(t, out, `href="mailto:hi@example.com"`)
	assert.Contains(t, out, `href="#section"`)
	assert.Contains(t, out, `href="javascript:void(0)"`)
}

func TestRewrite_AppendsBeacon(t *testing.T) {
	var (
		r    = newTestRewriter(&fakeLinkRepo{})
		html = `<html><body><p>Hello</p></body></html>`
	)

	out := r.Rewrite(context.Background(), html, "tracking-1", "pixel-1")

	assert.Contains(t, out, "https://track.example.com/api/v1/track/beacon/pixel-1")
	assert.Contains(t, out, "setTimeout")
	assert.Contains(t, out, "<script>")
}

func TestRewrite_FailureReturnsOriginal(t *testing.T) {
	var (
		linkRepo = &fakeLinkRepo{createErr: errors.New("db down")}
		r        = newTestRewriter(linkRepo)
		html     = `<html><body><a href="https://example.com">Go</a></body></html>`
	)

	out := r.Rewrite(context.Background(), html, "tracking-1", "pixel-1")

	assert.Equal(t, html, out)
}

func TestAppendPixel(t *testing.T) {
	r := newTestRewriter(&fakeLinkRepo{})

	out := r.AppendPixel("<p>Hello</p>", "pixel-1")

	assert.True(t, strings.HasPrefix(out, "<p>Hello</p>"))
	assert.Contains(t, out, `src="https://track.example.com/api/v1/track/open/pixel-1"`)
	assert.Contains(t, out, `width="1" height="1"`)
}
