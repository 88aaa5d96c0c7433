package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/repo"
)

// href schemes that are never rewritten
var skipPrefixes = []string{"mailto:", "#", "javascript:"}

const pixelTmpl = `<img src="%s" width="1" height="1" alt="" style="display:none" />`

// beacon fires once after a short delay, as a backup for image blocking.
// It only works if the client allows scripts; failure is silent.
const beaconTmpl = `
(function() {
	try {
		setTimeout(function() {
			var img = new Image();
			img.src = '%s?t=' + new Date().getTime();
		}, 1000);
	} catch(e) {}
})();
`

type ContentRewriter interface {
	Rewrite(ctx context.Context, html, trackingID, pixelToken string) string
	AppendPixel(html, pixelToken string) string
}

type contentRewriter struct {
	baseURL   string
	txService repo.TxService
	linkRepo  repo.LinkRepo
}

func NewContentRewriter(cfg config.Tracking, txService repo.TxService, linkRepo repo.LinkRepo) ContentRewriter {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &contentRewriter{
		baseURL:   baseURL,
		txService: txService,
		linkRepo:  linkRepo,
	}
}

// Rewrite swaps every trackable hyperlink for an indirection URL backed by
// a persisted link mapping, and injects the script beacon. All mappings are
// written in one transaction; on any failure the original content is
// returned untouched so that delivery is never blocked.
func (r *contentRewriter) Rewrite(ctx context.Context, html, trackingID, pixelToken string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("parse html failed, tracking_id: %s, err: %v", trackingID, err)
		return html
	}

	if err := r.txService.RunTx(ctx, func(ctx context.Context) error {
		var rewriteErr error

		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			originalURL, _ := sel.Attr("href")
			if isSkippable(originalURL) {
				return true
			}

			mapping := entity.NewLinkMapping(trackingID, originalURL)
			mapping.ID = goutil.String(uuid.NewString())

			trackingURL := r.clickURL(trackingID, mapping.GetID())
			mapping.TrackingURL = goutil.String(trackingURL)

			if _, err := r.linkRepo.Create(ctx, mapping); err != nil {
				rewriteErr = err
				return false
			}

			sel.SetAttr("href", trackingURL)
			return true
		})

		return rewriteErr
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("rewrite links failed, tracking_id: %s, err: %v", trackingID, err)
		return html
	}

	script := fmt.Sprintf(beaconTmpl, r.beaconURL(pixelToken))
	doc.Find("body").AppendHtml("<script>" + script + "</script>")

	out, err := doc.Html()
	if err != nil {
		log.Ctx(ctx).Error().Msgf("render html failed, tracking_id: %s, err: %v", trackingID, err)
		return html
	}
	return out
}

// AppendPixel tacks the hidden tracking image onto the end of the content.
// Test sends use this alone, with an ephemeral token.
func (r *contentRewriter) AppendPixel(html, pixelToken string) string {
	return html + fmt.Sprintf(pixelTmpl, r.openURL(pixelToken))
}

func (r *contentRewriter) openURL(pixelToken string) string {
	return fmt.Sprintf("%strack/open/%s", r.baseURL, pixelToken)
}

func (r *contentRewriter) clickURL(trackingID, linkID string) string {
	return fmt.Sprintf("%strack/click/%s/%s", r.baseURL, trackingID, linkID)
}

func (r *contentRewriter) beaconURL(pixelToken string) string {
	return fmt.Sprintf("%strack/beacon/%s", r.baseURL, pixelToken)
}

func isSkippable(href string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}
