package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"

	"github.com/adonese/accountd/account"
	"github.com/adonese/accountd/api"
	gateway "github.com/adonese/accountd/apigateway"
	"github.com/adonese/accountd/models"
	"github.com/adonese/accountd/store"
)

var serviceConfig = models.DefaultConfig()
var logrusLogger = logrus.New()

func main() {
	if err := loadConfig(); err != nil {
		logrusLogger.Fatalf("load config: %v", err)
	}
	configureLogger(serviceConfig)

	db, err := store.OpenDB(serviceConfig.DatabasePath, serviceConfig.IsDebug)
	if err != nil {
		logrusLogger.Fatalf("open database: %v", err)
	}
	accountStore, err := store.New(db, serviceConfig.DataEncryptionKey)
	if err != nil {
		logrusLogger.Fatalf("init store: %v", err)
	}
	if serviceConfig.DataEncryptionKey == "" {
		logrusLogger.Warn("no data encryption key configured, provider tokens are stored in the clear")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: serviceConfig.RedisPort})
	if _, err := redisClient.Ping().Result(); err != nil {
		logrusLogger.Fatalf("redis at %s unreachable: %v", serviceConfig.RedisPort, err)
	}

	auth := gateway.NewJWTAuth(serviceConfig)
	issuer := &gateway.TokenService{
		JWT:     auth,
		Refresh: gateway.NewRefreshStore(redisClient, serviceConfig),
	}

	accountService := &account.Service{
		Store:  accountStore,
		Google: account.NewGoogleClient(serviceConfig),
		Issuer: issuer,
		Logger: logrusLogger,
		Config: serviceConfig,
	}
	if sms := account.NewSMSSender(serviceConfig); sms != nil {
		accountService.SMS = sms
	} else {
		logrusLogger.Warn("no sms gateway configured, verification codes will not be delivered")
	}

	route := api.GetMainEngine(&api.Service{
		Account: accountService,
		Auth:    auth,
		Logger:  logrusLogger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", serviceConfig.Port),
		Handler: route,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrusLogger.Infof("accountd listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrusLogger.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrusLogger.Errorf("shutdown: %v", err)
	}
}
