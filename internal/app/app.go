package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/authz"
	healthcheck "github.com/Kirk-kud/swe-cafe-sub000/internal/health"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/messaging/kafka"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/metrics"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/service/orders"
	outboxsvc "github.com/Kirk-kud/swe-cafe-sub000/internal/service/outbox"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/service/payment"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/version"
)

// App собирает сервисный слой платформы заказов: workflow заказов,
// администрирование грантов персонала и конвейер доставки событий.
type App struct {
	Config      Config
	Deps        *Dependencies
	Workflow    *orders.Workflow
	Assignments *authz.AssignmentService
	Events      *orders.FanOut

	kafkaProducer *kafka.Producer
	outboxWorker  *outboxsvc.Worker
	logger        *log.Entry
}

// New создаёт приложение и связывает все зависимости.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Ошибка подключения к Kafka не фатальна: события продолжают
	// копиться в outbox до восстановления брокера.
	kafkaProducer := newEventProducer(cfg.KafkaBrokers, logger)

	events := orders.NewFanOut()
	events.Subscribe(outboxsvc.NewNotifier(deps.Outbox))

	var worker *outboxsvc.Worker
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker = outboxsvc.NewWorker(
			deps.Outbox,
			publisher,
			outboxsvc.WithDLQPublisher(dlqPublisher),
			outboxsvc.WithPollInterval(cfg.OutboxPollInterval),
			outboxsvc.WithLogger(logger.WithField("component", "outbox-worker")),
		)
	}

	workflow := orders.NewWorkflow(
		deps.Orders,
		payment.NewRegistry(),
		events,
		metrics.NewOrderMetrics(),
	)
	assignments := authz.NewAssignmentService(deps.Assignments, logger.WithField("component", "assignments"))

	return &App{
		Config:        cfg,
		Deps:          deps,
		Workflow:      workflow,
		Assignments:   assignments,
		Events:        events,
		kafkaProducer: kafkaProducer,
		outboxWorker:  worker,
		logger:        logger,
	}, nil
}

// Run запускает фоновые компоненты и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if a.outboxWorker != nil {
		go a.outboxWorker.Run(ctx)
	} else {
		a.logger.Info("kafka is not configured, outbox worker is idle")
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if a.Deps.Store != nil {
		store := a.Deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(a.Deps.Outbox, 0))

	srv := startMetricsServer(a.Config.MetricsAddr, a.logger, healthHandler)

	<-ctx.Done()
	a.logger.Info("получен сигнал остановки, завершаем работу")

	shutdownHTTP(srv, a.logger)
	a.closeEventProducer()
	a.Deps.Close()

	return ctx.Err()
}

// newEventProducer создаёт Kafka producer для конвейера событий.
// Пустой список брокеров и ошибка подключения дают nil: приложение
// работает без брокера, события остаются в outbox.
func newEventProducer(brokers string, logger *log.Entry) *kafka.Producer {
	if brokers == "" {
		return nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer
}

func (a *App) closeEventProducer() {
	if a.kafkaProducer == nil {
		return
	}

	if err := a.kafkaProducer.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	a.logger.Info("kafka producer closed")
}

// Run создаёт приложение и запускает его: удобная точка входа для cmd.
func Run(ctx context.Context, cfg Config) error {
	application, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
