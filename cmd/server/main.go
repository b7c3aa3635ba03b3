package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/hearttriage/internal/api"
	"github.com/Skufu/hearttriage/internal/config"
	"github.com/Skufu/hearttriage/internal/logging"
	"github.com/Skufu/hearttriage/internal/model"
	"github.com/Skufu/hearttriage/internal/store"
	"github.com/Skufu/hearttriage/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	predictor, bundle := loadPredictor(cfg.Model, log)
	defer bundle.Close()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("patient store unavailable")
	}
	defer st.Close()

	handler := api.NewHandler(predictor, st, log, cfg.RecordAPIPredictions)
	server := newServer(cfg.Port, api.NewRouter(handler, cfg.MaxBodyBytes))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"model_backend": cfg.Model.Backend,
		"store_backend": cfg.StoreBackend,
	}).Info("server listening")
	waitForShutdown(server, log)
}

// loadPredictor never fails: when the artifacts cannot be loaded the service
// still starts and every prediction reports the model as unavailable.
func loadPredictor(cfg model.Config, log *logrus.Logger) (*triage.Predictor, *model.Bundle) {
	bundle, err := model.Load(cfg)
	if err != nil {
		log.WithError(err).Error("model not loaded, predictions disabled")
		return triage.Unavailable(err), nil
	}
	log.WithField("backend", cfg.Backend).Info("model loaded")
	return triage.NewPredictor(bundle.Preprocessor, bundle.Classifier), bundle
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreSQLite:
		return store.OpenSQLite(cfg.SQLitePath)
	case config.StorePostgres:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreRedis:
		return store.OpenRedis(ctx, cfg.RedisURL, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func waitForShutdown(server *http.Server, log *logrus.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
