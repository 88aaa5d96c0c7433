package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/pkg/mq"
	"github.com/sugils/Email-tracker-BE/repo"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingHandler serves the unauthenticated callback endpoints embedded
// into outbound content. Every response is benign no matter what the
// caller sends: the pixel always renders, the redirect always lands.
type TrackingHandler interface {
	Open(w http.ResponseWriter, r *http.Request)
	Click(w http.ResponseWriter, r *http.Request)
	Beacon(w http.ResponseWriter, r *http.Request)
}

type trackingHandler struct {
	cfg          config.Tracking
	trackingRepo repo.TrackingRepo
	linkRepo     repo.LinkRepo
	txService    repo.TxService
	producer     *mq.Producer
}

func NewTrackingHandler(cfg config.Tracking, trackingRepo repo.TrackingRepo, linkRepo repo.LinkRepo,
	txService repo.TxService, producer *mq.Producer) TrackingHandler {
	return &trackingHandler{
		cfg:          cfg,
		trackingRepo: trackingRepo,
		linkRepo:     linkRepo,
		txService:    txService,
		producer:     producer,
	}
}

func (h *trackingHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pixelToken := mux.Vars(r)["pixel_token"]

	h.recordOpen(ctx, pixelToken, mq.EngagementEventOpen)

	writePixel(w)
}

func (h *trackingHandler) Beacon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pixelToken := mux.Vars(r)["pixel_token"]

	h.recordOpen(ctx, pixelToken, mq.EngagementEventBeacon)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *trackingHandler) Click(w http.ResponseWriter, r *http.Request) {
	var (
		ctx        = r.Context()
		vars       = mux.Vars(r)
		trackingID = vars["tracking_id"]
		linkID     = vars["link_id"]
	)

	link, err := h.linkRepo.GetByIDAndTrackingID(ctx, linkID, trackingID)
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("get link mapping err: %v, tracking_id: %s, link_id: %s", err, trackingID, linkID)
		http.Redirect(w, r, h.cfg.FallbackRedirectURL, http.StatusFound)
		return
	}

	// ledger and per-link counters move together or not at all
	if err := h.txService.RunTx(ctx, func(ctx context.Context) error {
		if err := h.trackingRepo.RecordClick(ctx, trackingID); err != nil {
			return err
		}
		return h.linkRepo.RecordClick(ctx, linkID)
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("record click err: %v, tracking_id: %s, link_id: %s", err, trackingID, linkID)
		http.Redirect(w, r, h.cfg.FallbackRedirectURL, http.StatusFound)
		return
	}

	h.publish(ctx, trackingID, "", mq.EngagementEventClick)

	http.Redirect(w, r, link.GetOriginalURL(), http.StatusFound)
}

func (h *trackingHandler) recordOpen(ctx context.Context, pixelToken, event string) {
	if err := h.trackingRepo.RecordOpen(ctx, pixelToken); err != nil {
		log.Ctx(ctx).Warn().Msgf("record open err: %v, pixel_token: %s, event: %s", err, pixelToken, event)
		return
	}

	record, err := h.trackingRepo.GetByPixelToken(ctx, pixelToken)
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("get tracking record err: %v, pixel_token: %s", err, pixelToken)
		return
	}

	h.publish(ctx, record.GetID(), record.GetCampaignID(), event)
}

func (h *trackingHandler) publish(ctx context.Context, trackingID, campaignID, event string) {
	body := &mq.EngagementEvent{
		TrackingID: goutil.String(trackingID),
		Event:      goutil.String(event),
		OccurredAt: goutil.Time(time.Now()),
	}
	if campaignID != "" {
		body.CampaignID = goutil.String(campaignID)
	}

	err := h.producer.SendMessage(&mq.Message{
		Payload: mq.PayloadEngagementEvent,
		Key:     trackingID,
		Body:    body,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("publish engagement event err: %v, tracking_id: %s, event: %s", err, trackingID, event)
	}
}

func writePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pixelGIF)
}
