package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/repo"
)

type fakeTxService struct{}

func (s *fakeTxService) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTrackingRepo struct {
	records  map[string]*entity.TrackingRecord // by pixel token
	clickErr error

	opens   []string
	clicks  []string
	replies [][2]string
}

func (r *fakeTrackingRepo) Create(_ context.Context, _ *entity.TrackingRecord) (string, error) {
	return "", nil
}

func (r *fakeTrackingRepo) GetByPixelToken(_ context.Context, pixelToken string) (*entity.TrackingRecord, error) {
	if record, ok := r.records[pixelToken]; ok {
		return record, nil
	}
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetByCampaignIDAndRecipientID(_ context.Context, _, _ string) (*entity.TrackingRecord, error) {
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetManyByCampaignID(_ context.Context, _ string, _ *repo.Pagination) ([]*entity.TrackingRecord, *entity.Pagination, error) {
	return nil, nil, nil
}

func (r *fakeTrackingRepo) RecordOpen(_ context.Context, pixelToken string) error {
	if _, ok := r.records[pixelToken]; !ok {
		return repo.ErrTrackingNotFound
	}
	r.opens = append(r.opens, pixelToken)
	return nil
}

func (r *fakeTrackingRepo) RecordClick(_ context.Context, trackingID string) error {
	if r.clickErr != nil {
		return r.clickErr
	}
	r.clicks = append(r.clicks, trackingID)
	return nil
}

func (r *fakeTrackingRepo) RecordReply(_ context.Context, campaignID, recipientID string) error {
	r.replies = append(r.replies, [2]string{campaignID, recipientID})
	return nil
}

func (r *fakeTrackingRepo) MarkSent(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) MarkFailed(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) GetCampaignStats(_ context.Context, _ string) (*entity.CampaignStats, error) {
	return nil, nil
}

type fakeLinkRepo struct {
	links  map[string]*entity.LinkMapping
	clicks []string
}

func (r *fakeLinkRepo) Create(_ context.Context, _ *entity.LinkMapping) (string, error) {
	return "", nil
}

func (r *fakeLinkRepo) GetByIDAndTrackingID(_ context.Context, id, trackingID string) (*entity.LinkMapping, error) {
	if link, ok := r.links[id]; ok && link.GetTrackingID() == trackingID {
		return link, nil
	}
	return nil, repo.ErrLinkMappingNotFound
}

func (r *fakeLinkRepo) RecordClick(_ context.Context, id string) error {
	r.clicks = append(r.clicks, id)
	return nil
}

func newTestRouter(trackingRepo *fakeTrackingRepo, linkRepo *fakeLinkRepo) *mux.Router {
	h := NewTrackingHandler(config.Tracking{
		FallbackRedirectURL: "https://www.google.com",
	}, trackingRepo, linkRepo, &fakeTxService{}, nil)

	r := mux.NewRouter()
	r.HandleFunc(config.PathTrackOpen, h.Open).Methods(http.MethodGet)
	r.HandleFunc(config.PathTrackClick, h.Click).Methods(http.MethodGet)
	r.HandleFunc(config.PathTrackBeacon, h.Beacon).Methods(http.MethodGet)
	return r
}

func TestTrackOpen(t *testing.T) {
	trackingRepo := &fakeTrackingRepo{
		records: map[string]*entity.TrackingRecord{
			"tok-1": {ID: goutil.String("tracking-1"), CampaignID: goutil.String("campaign-1")},
		},
	}
	r := newTestRouter(trackingRepo, &fakeLinkRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/open/tok-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, pixelGIF, w.Body.Bytes())
	assert.Equal(t, []string{"tok-1"}, trackingRepo.opens)
}

func TestTrackOpen_UnknownTokenStillServesPixel(t *testing.T) {
	trackingRepo := &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
	r := newTestRouter(trackingRepo, &fakeLinkRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/open/forged", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pixelGIF, w.Body.Bytes())
	assert.Empty(t, trackingRepo.opens)
}

func TestTrackClick(t *testing.T) {
	var (
		trackingRepo = &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
		linkRepo     = &fakeLinkRepo{
			links: map[string]*entity.LinkMapping{
				"link-1": {
					ID:          goutil.String("link-1"),
					TrackingID:  goutil.String("tracking-1"),
					OriginalURL: goutil.String("https://example.com/pricing"),
				},
			},
		}
	)
	r := newTestRouter(trackingRepo, linkRepo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/click/tracking-1/link-1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/pricing", w.Header().Get("Location"))
	assert.Equal(t, []string{"tracking-1"}, trackingRepo.clicks)
	assert.Equal(t, []string{"link-1"}, linkRepo.clicks)
}

func TestTrackClick_LedgerUpdateFailureFallsBack(t *testing.T) {
	var (
		trackingRepo = &fakeTrackingRepo{
			records:  map[string]*entity.TrackingRecord{},
			clickErr: errors.New("store unavailable"),
		}
		linkRepo = &fakeLinkRepo{
			links: map[string]*entity.LinkMapping{
				"link-1": {
					ID:          goutil.String("link-1"),
					TrackingID:  goutil.String("tracking-1"),
					OriginalURL: goutil.String("https://example.com/pricing"),
				},
			},
		}
	)
	r := newTestRouter(trackingRepo, linkRepo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/click/tracking-1/link-1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://www.google.com", w.Header().Get("Location"))
	assert.Empty(t, linkRepo.clicks)
}

func TestTrackClick_UnknownLinkFallsBack(t *testing.T) {
	var (
		trackingRepo = &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
		linkRepo     = &fakeLinkRepo{links: map[string]*entity.LinkMapping{}}
	)
	r := newTestRouter(trackingRepo, linkRepo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/click/tracking-1/forged", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://www.google.com", w.Header().Get("Location"))
	assert.Empty(t, trackingRepo.clicks)
	assert.Empty(t, linkRepo.clicks)
}

func TestTrackClick_MismatchedTrackingIDFallsBack(t *testing.T) {
	var (
		trackingRepo = &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
		linkRepo     = &fakeLinkRepo{
			links: map[string]*entity.LinkMapping{
				"link-1": {
					ID:          goutil.String("link-1"),
					TrackingID:  goutil.String("tracking-1"),
					OriginalURL: goutil.String("https://example.com"),
				},
			},
		}
	)
	r := newTestRouter(trackingRepo, linkRepo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/click/other-tracking/link-1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://www.google.com", w.Header().Get("Location"))
}

func TestTrackBeacon(t *testing.T) {
	trackingRepo := &fakeTrackingRepo{
		records: map[string]*entity.TrackingRecord{
			"tok-1": {ID: goutil.String("tracking-1")},
		},
	}
	r := newTestRouter(trackingRepo, &fakeLinkRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/beacon/tok-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, []string{"tok-1"}, trackingRepo.opens)
}

func TestTrackBeacon_UnknownTokenStillOk(t *testing.T) {
	trackingRepo := &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
	r := newTestRouter(trackingRepo, &fakeLinkRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/beacon/forged", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
