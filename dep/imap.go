package dep

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
)

type InboundMessage struct {
	Subject   string
	FromEmail string
}

type MailService interface {
	FetchRecentMessages(ctx context.Context, since time.Time) ([]*InboundMessage, error)
}

type mailService struct {
	cfg config.IMAP
}

func NewMailService(cfg config.IMAP) MailService {
	return &mailService{cfg: cfg}
}

// FetchRecentMessages pulls the envelopes of every mailbox message received
// after since. Each call runs a full login/select/logout cycle so the
// connection is never held between polls.
func (s *mailService) FetchRecentMessages(ctx context.Context, since time.Time) ([]*InboundMessage, error) {
	c, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Logout().Wait(); err != nil {
			log.Ctx(ctx).Warn().Msgf("imap logout failed, err: %v", err)
		}
	}()

	if err := c.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	if _, err := c.Select(s.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", s.cfg.Mailbox, err)
	}

	searchData, err := c.Search(&imap.SearchCriteria{
		Since: since,
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}

	seqNums := searchData.AllSeqNums()
	if len(seqNums) == 0 {
		return nil, nil
	}

	bufs, err := c.Fetch(imap.SeqSetNum(seqNums...), &imap.FetchOptions{
		Envelope: true,
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	msgs := make([]*InboundMessage, 0, len(bufs))
	for _, buf := range bufs {
		if buf.Envelope == nil || len(buf.Envelope.From) == 0 {
			continue
		}
		msgs = append(msgs, &InboundMessage{
			Subject:   buf.Envelope.Subject,
			FromEmail: buf.Envelope.From[0].Addr(),
		})
	}

	return msgs, nil
}

func (s *mailService) dial(ctx context.Context) (*imapclient.Client, error) {
	var c *imapclient.Client

	op := func() error {
		var err error
		c, err = imapclient.DialTLS(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), nil)
		if err != nil {
			log.Ctx(ctx).Warn().Msgf("imap dial failed, err: %v", err)
		}
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("imap dial: %w", err)
	}

	return c, nil
}
