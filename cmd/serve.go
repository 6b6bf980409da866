package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geekodo/kudos-portal/internal/botfeed"
	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/config"
	"github.com/geekodo/kudos-portal/internal/db"
	httpSrv "github.com/geekodo/kudos-portal/internal/http"
	"github.com/geekodo/kudos-portal/internal/kafka"
	"github.com/geekodo/kudos-portal/internal/logger"
	"github.com/geekodo/kudos-portal/internal/mailer"
	"github.com/geekodo/kudos-portal/internal/notify"
	"github.com/geekodo/kudos-portal/internal/pipeline"
	"github.com/geekodo/kudos-portal/internal/repository"
	"github.com/geekodo/kudos-portal/internal/stream"
	"github.com/geekodo/kudos-portal/internal/templates"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server and activity pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)

		mysqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
			PoolSize:    cfg.Redis.PoolSize,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		// ClickHouse activity log is optional
		var chDB *sqlx.DB
		if cfg.ClickHouse.DSN != "" {
			chDB, err = db.NewClickHouseConnection(db.ClickHouseOpts{
				DSN:             cfg.ClickHouse.DSN,
				MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
				MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
				ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
				PingTimeout:     cfg.ClickHouse.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() { _ = chDB.Close() }()
		}

		// activity pipeline
		b := bus.New(logger.Log)

		renderer, err := templates.NewRenderer()
		if err != nil {
			return fmt.Errorf("email templates: %w", err)
		}

		usersRepo := repository.NewUsersRepository(mysqlDB)
		notificationsRepo := repository.NewNotificationsRepository(mysqlDB)
		var activityRepo repository.ActivityLogRepository
		if chDB != nil {
			activityRepo = repository.NewActivityLogRepository(chDB)
		}

		sink := notify.NewSink(notificationsRepo, newMailer(cfg), renderer,
			cfg.Mail.From, cfg.Mail.FromName, logger.Log)
		disp := pipeline.NewDispatcher(usersRepo, sink, activityRepo, logger.Log)
		disp.Start(b)
		defer disp.Stop()

		// optional kafka bridge for off-process bots
		if cfg.Kafka.Enabled {
			producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			defer func() { _ = producer.Close() }()

			publisher := botfeed.NewPublisher(producer, logger.Log)
			publisher.Start(b)
			defer publisher.Stop()
		}

		streamHandler := stream.NewHandler(b, logger.Log)
		server := httpSrv.NewServer(cfg, mysqlDB, chDB, redisClient, b, streamHandler)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting http on %s", cfg.HTTP.Addr)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}

func newMailer(cfg config.Config) mailer.Mailer {
	switch cfg.Mail.Provider {
	case "smtp":
		return mailer.NewSMTPMailer(cfg.Mail.SMTP.Host, cfg.Mail.SMTP.Port,
			cfg.Mail.SMTP.Username, cfg.Mail.SMTP.Password)
	case "sendgrid":
		return mailer.NewSendGridMailer(cfg.Mail.SendGrid.APIKey, cfg.Mail.FromName,
			time.Duration(cfg.Mail.SendGrid.TimeoutMs)*time.Millisecond)
	default:
		return mailer.Nop{}
	}
}
