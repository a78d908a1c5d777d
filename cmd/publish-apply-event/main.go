// cmd/publish-apply-event/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"apply-portal/internal/common/aws"
	"apply-portal/internal/common/camunda"
	"apply-portal/internal/common/config"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/observability"
	"apply-portal/internal/events"
	"apply-portal/internal/server"

	pae "apply-portal/internal/handlers/publish-apply-event"
)

const (
	serviceName     = "publish-apply-event"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load(config.ProfilePublishFunction)
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, serviceName)

	obs, err := observability.New(serviceName)
	if err != nil {
		log.Warn("metrics exporter unavailable", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown()
	if cfg.Tracing.JaegerEndpoint != "" {
		if err := obs.EnableTracing(serviceName, cfg.App.Version, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio); err != nil {
			log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	ctx := context.Background()
	awsClients, err := aws.NewClients(ctx, cfg.AWS.Region)
	if err != nil {
		log.Error("aws config failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	handlerCfg := pae.LoadConfig(cfg)
	primary := events.NewEventBridgeSink(awsClients.EventBridge, handlerCfg.BusName, handlerCfg.Source, handlerCfg.DetailType)

	var secondary []events.Sink
	checks := map[string]server.Check{}
	if cfg.AWS.SNS.Enabled {
		secondary = append(secondary, events.NewSNSSink(awsClients.SNS, cfg.AWS.SNS.TopicARN, handlerCfg.DetailType))
	}
	if cfg.AWS.SES.Enabled {
		secondary = append(secondary, events.NewAckEmailSink(awsClients.SES, cfg.AWS.SES.FromEmail))
	}
	if cfg.Camunda.Enabled {
		zb, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			log.Error("zeebe unavailable, workflow sink disabled", map[string]interface{}{"error": err.Error()})
		} else {
			defer zb.Close()
			secondary = append(secondary, events.NewWorkflowSink(zb, cfg.Camunda.MessageName, config.GetDuration(cfg.Camunda.MessageTTL)))
			checks["zeebe"] = zb.HealthCheck
		}
	}

	log.Info("starting publish function", map[string]interface{}{
		"busName":        handlerCfg.BusName,
		"source":         handlerCfg.Source,
		"secondarySinks": len(secondary),
	})

	handler := pae.NewHandler(handlerCfg, events.NewDispatcher(primary, log, secondary...), obs, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.AccessLog(log))
	r.Handle("/", handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      handlerCfg.Timeout + 5*time.Second,
	}
	metricsSrv := server.NewMetricsServer(cfg.Server.MetricsPort, checks)

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	go func() {
		log.Info("function listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("function server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("function shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info("publish function stopped", nil)
}
