package worker

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/geekodo/kudos-portal/internal/botfeed"
	"github.com/geekodo/kudos-portal/internal/config"
	"github.com/geekodo/kudos-portal/internal/kafka"
	"github.com/geekodo/kudos-portal/internal/logger"
	"github.com/spf13/cobra"
)

var botrelayCmd = &cobra.Command{
	Use:   "botrelay",
	Short: "Relay the activity topic to a chat webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)

		if !cfg.Kafka.Enabled {
			return fmt.Errorf("kafka is disabled in config")
		}
		if cfg.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is not configured")
		}

		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "kudos-botrelay"
		}

		consumer := kafka.NewConsumerFromConfig(kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        groupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer func() { _ = consumer.Close() }()

		relay := botfeed.NewRelay(consumer, cfg.Webhook.URL,
			time.Duration(cfg.Webhook.TimeoutMs)*time.Millisecond, logger.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return relay.Run(ctx)
	},
}
