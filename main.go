package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/dispatch"
	"github.com/sugils/Email-tracker-BE/handler"
	"github.com/sugils/Email-tracker-BE/middleware"
	"github.com/sugils/Email-tracker-BE/pkg/logutil"
	"github.com/sugils/Email-tracker-BE/pkg/mq"
	"github.com/sugils/Email-tracker-BE/pkg/router"
	"github.com/sugils/Email-tracker-BE/pkg/service"
	"github.com/sugils/Email-tracker-BE/repo"
	"github.com/sugils/Email-tracker-BE/rewrite"
)

type server struct {
	ctx context.Context
	opt *config.Option
	cfg *config.Config

	baseRepo      repo.BaseRepo
	userRepo      repo.UserRepo
	campaignRepo  repo.CampaignRepo
	templateRepo  repo.TemplateRepo
	recipientRepo repo.RecipientRepo
	trackingRepo  repo.TrackingRepo
	linkRepo      repo.LinkRepo

	producer   *mq.Producer
	dispatcher dispatch.Dispatcher

	// api handlers
	campaignHandler handler.CampaignHandler
	trackingHandler handler.TrackingHandler
}

func main() {
	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	opt := config.NewOptions()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		opt.LogLevel = logLevel
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		opt.ConfigPath = configPath
	}

	if serverPort := os.Getenv("PORT"); serverPort != "" {
		if port, err := strconv.Atoi(serverPort); err == nil {
			opt.Port = port
		}
	}

	s.opt = opt

	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	// ===== init repos ===== //

	s.baseRepo, err = repo.NewBaseRepo(s.ctx, s.cfg.TrackingDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.baseRepo != nil {
			if err := s.baseRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
				return
			}
		}
	}()

	s.userRepo = repo.NewUserRepo(s.ctx, s.baseRepo)
	s.campaignRepo = repo.NewCampaignRepo(s.ctx, s.baseRepo)
	s.templateRepo = repo.NewTemplateRepo(s.ctx, s.baseRepo)
	s.recipientRepo = repo.NewRecipientRepo(s.ctx, s.baseRepo)
	s.trackingRepo = repo.NewTrackingRepo(s.ctx, s.baseRepo, s.cfg.Tracking)
	s.linkRepo = repo.NewLinkRepo(s.ctx, s.baseRepo)

	// ===== init producer ===== //

	// engagement events are optional, a nil producer drops them
	if len(s.cfg.EngagementMQ.Brokers) > 0 {
		s.producer, err = mq.NewProducer(s.ctx, s.cfg.EngagementMQ)
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init producer failed, err: %v", err)
			return err
		}
	}

	// ===== init dispatcher ===== //

	var (
		emailService = dep.NewEmailService(s.cfg.SMTP)
		rewriter     = rewrite.NewContentRewriter(s.cfg.Tracking, s.baseRepo, s.linkRepo)
		pipeline     = dispatch.NewPipeline(s.campaignRepo, s.templateRepo, s.recipientRepo,
			s.trackingRepo, emailService, rewriter)
	)

	s.dispatcher = dispatch.NewDispatcher(s.cfg.Dispatcher, pipeline)
	s.dispatcher.Start(s.ctx)

	// ===== init handlers ===== //

	s.campaignHandler = handler.NewCampaignHandler(s.campaignRepo, s.trackingRepo, s.dispatcher)
	s.trackingHandler = handler.NewTrackingHandler(s.cfg.Tracking, s.trackingRepo, s.linkRepo, s.baseRepo, s.producer)

	// ===== start server ===== //

	go func() {
		addr := fmt.Sprintf(":%d", s.opt.Port)

		log.Info().Msgf("starting HTTP server at %s", addr)

		httpServer := &http.Server{
			BaseContext: func(_ net.Listener) context.Context {
				return s.ctx
			},
			Addr:    addr,
			Handler: middleware.Log(s.registerRoutes()),
		}
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

func (s *server) Stop() error {
	if s.dispatcher != nil {
		s.dispatcher.Stop(s.ctx)
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close producer failed, err: %v", err)
			return err
		}
	}

	if s.baseRepo != nil {
		if err := s.baseRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			return err
		}
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}

	authMiddleware := router.NewAuthMiddleware(s.userRepo)

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	// send_campaign
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathSendCampaign,
		Method:      http.MethodPost,
		Middlewares: []router.Middleware{authMiddleware},
		Handler: router.Handler{
			Req: new(handler.SendCampaignRequest),
			Res: new(handler.SendCampaignResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.SendCampaign(ctx, req.(*handler.SendCampaignRequest), res.(*handler.SendCampaignResponse))
			},
		},
	})

	// get_campaign_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaignStats,
		Method:      http.MethodGet,
		Middlewares: []router.Middleware{authMiddleware},
		Handler: router.Handler{
			Req: new(handler.GetCampaignStatsRequest),
			Res: new(handler.GetCampaignStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaignStats(ctx, req.(*handler.GetCampaignStatsRequest), res.(*handler.GetCampaignStatsResponse))
			},
		},
	})

	// get_campaign_trackings
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathGetCampaignTrackings,
		Method:      http.MethodGet,
		Middlewares: []router.Middleware{authMiddleware},
		Handler: router.Handler{
			Req: new(handler.GetCampaignTrackingsRequest),
			Res: new(handler.GetCampaignTrackingsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.GetCampaignTrackings(ctx, req.(*handler.GetCampaignTrackingsRequest), res.(*handler.GetCampaignTrackingsResponse))
			},
		},
	})

	// mark_campaign_replied
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:        config.PathMarkCampaignReplied,
		Method:      http.MethodPost,
		Middlewares: []router.Middleware{authMiddleware},
		Handler: router.Handler{
			Req: new(handler.MarkCampaignRepliedRequest),
			Res: new(handler.MarkCampaignRepliedResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.campaignHandler.MarkCampaignReplied(ctx, req.(*handler.MarkCampaignRepliedRequest), res.(*handler.MarkCampaignRepliedResponse))
			},
		},
	})

	// engagement callbacks, no auth and no JSON envelope
	r.RegisterRawRoute(http.MethodGet, config.PathTrackOpen, http.HandlerFunc(s.trackingHandler.Open))
	r.RegisterRawRoute(http.MethodGet, config.PathTrackClick, http.HandlerFunc(s.trackingHandler.Click))

	// the beacon is called from scripts on arbitrary origins
	r.RegisterRawRoute(http.MethodGet, config.PathTrackBeacon,
		cors.AllowAll().Handler(http.HandlerFunc(s.trackingHandler.Beacon)))

	return r
}
