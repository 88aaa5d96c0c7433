package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
)

var ErrQueueFull = errors.New("dispatch queue is full")

// Task is one accepted send request. The user is captured at submission
// time so test sends address the campaign owner.
type Task struct {
	Campaign *entity.Campaign
	User     *entity.User
	Mode     entity.CampaignMode
}

type Dispatcher interface {
	Start(ctx context.Context)
	Submit(ctx context.Context, task *Task) error
	Stop(ctx context.Context)
}

type dispatcher struct {
	cfg      config.Dispatcher
	pipeline Pipeline
	tasks    chan *Task
	g        *errgroup.Group
}

func NewDispatcher(cfg config.Dispatcher, pipeline Pipeline) Dispatcher {
	return &dispatcher{
		cfg:      cfg,
		pipeline: pipeline,
		tasks:    make(chan *Task, cfg.QueueSize),
		g:        new(errgroup.Group),
	}
}

func (d *dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.g.Go(func() error {
			for task := range d.tasks {
				if err := d.pipeline.SendCampaign(ctx, task); err != nil {
					log.Ctx(ctx).Error().Msgf("send campaign failed, campaign_id: %s, err: %v",
						task.Campaign.GetID(), err)
				}
			}
			return nil
		})
	}
}

// Submit enqueues a task without blocking. Callers get an immediate
// acknowledgement or ErrQueueFull, never a stalled request.
func (d *dispatcher) Submit(_ context.Context, task *Task) error {
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the queue and waits for in-flight sends to finish.
func (d *dispatcher) Stop(ctx context.Context) {
	close(d.tasks)
	if err := d.g.Wait(); err != nil {
		log.Ctx(ctx).Error().Msgf("dispatcher stop failed, err: %v", err)
	}
}
