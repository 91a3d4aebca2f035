package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/comandaclub/comanda/internal/mongo"
	"github.com/comandaclub/comanda/internal/offline"
	"github.com/comandaclub/comanda/internal/pos"
	"github.com/comandaclub/comanda/pkg"
)

const (
	appNamespace = "COMANDA"
	appName      = "comanda"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	checkRepo := mongo.NewCheckRepo(db)
	orderRepo := mongo.NewOrderRepo(db)
	ingredientRepo := mongo.NewIngredientRepo(db)
	menuRepo := mongo.NewMenuRepo(db)
	settingsRepo := mongo.NewSettingsRepo(db)

	if err := ingredientRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot ensure ingredient indexes: %v", appName, appVersion, err)
	}

	queuePath := config.GetStringOrDef("offline.queue.path", "comanda-queue.db")
	queue, err := offline.OpenQueue(queuePath)
	if err != nil {
		log.Fatalf("%s(%s) cannot open offline queue: %v", appName, appVersion, err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL, "comanda-sync")
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	service := pos.NewService(pos.ServiceDeps{
		Runner:    mongo.NewTxRunner(baseRepo),
		Checks:    checkRepo,
		Orders:    orderRepo,
		Menu:      menuRepo,
		Settings:  settingsRepo,
		Publisher: pub,
	}, logger)

	docStore := mongo.NewDocStore(db)
	dispatcher := offline.NewDispatcher(docStore, service, queue, baseRepo)
	syncer := offline.NewSyncer(queue, docStore, service, pub, logger)

	probeInterval, err := time.ParseDuration(config.GetStringOrDef("connectivity.probe.interval", "15s"))
	if err != nil {
		log.Fatalf("%s(%s) invalid connectivity probe interval: %v", appName, appVersion, err)
	}
	watcher := offline.NewWatcher(baseRepo, queue, pub, probeInterval, logger)
	syncSub := offline.NewSyncSubscriber(sub, logger)

	hd := pos.HandlerDeps{
		Service:     service,
		Checks:      checkRepo,
		Orders:      orderRepo,
		Ingredients: ingredientRepo,
		Dispatcher:  dispatcher,
		Syncer:      syncer,
		Queue:       queue,
		Port:        baseRepo,
	}

	handler := pos.NewHandler(hd, config, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	queueLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return queue.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		watcher,
		syncSub,
		publisherLifecycle,
		subLifecycle,
		queueLifecycle,
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
