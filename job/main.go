package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/job/check_replies"
	"github.com/sugils/Email-tracker-BE/pkg/logutil"
	"github.com/sugils/Email-tracker-BE/pkg/mq"
	"github.com/sugils/Email-tracker-BE/pkg/service"
	"github.com/sugils/Email-tracker-BE/repo"
)

func main() {
	var (
		opt = config.NewOptions()
		ctx = logutil.InitZeroLog(context.Background(), config.LogLevelDebug)
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.NewConfig()
	if err := cfg.Load(ctx, opt.ConfigPath); err != nil {
		log.Ctx(ctx).Error().Msgf("load config failed: %v", err)
		os.Exit(1)
	}

	// base repo
	baseRepo, err := repo.NewBaseRepo(ctx, cfg.TrackingDB)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("init base repo failed, err: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := baseRepo.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("close base repo failed, err: %v", err)
		}
	}()

	var (
		campaignRepo  = repo.NewCampaignRepo(ctx, baseRepo)
		recipientRepo = repo.NewRecipientRepo(ctx, baseRepo)
		trackingRepo  = repo.NewTrackingRepo(ctx, baseRepo, cfg.Tracking)
		mailService   = dep.NewMailService(cfg.IMAP)
	)

	// engagement events are optional, a nil producer drops them
	var producer *mq.Producer
	if len(cfg.EngagementMQ.Brokers) > 0 {
		producer, err = mq.NewProducer(ctx, cfg.EngagementMQ)
		if err != nil {
			log.Ctx(ctx).Error().Msgf("init producer failed, err: %v", err)
			os.Exit(1)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				log.Ctx(ctx).Error().Msgf("close producer failed, err: %v", err)
			}
		}()
	}

	jobs := map[string]service.Job{
		"check-replies": check_replies.New(cfg.ReplyCheck, mailService, campaignRepo, recipientRepo, trackingRepo, producer),
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <job_name>")
		os.Exit(1)
	}

	jobName := os.Args[1]
	job, exists := jobs[jobName]
	if !exists {
		log.Ctx(ctx).Error().Msgf("job %s not found", jobName)
		os.Exit(1)
	}

	if err := job.Init(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("init job err: %v", err)
		os.Exit(1)
	}

	if err := job.Run(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("run job err: %v", err)
		os.Exit(1)
	}

	if err := job.CleanUp(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("cleanup job err: %v", err)
		os.Exit(1)
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")
}
