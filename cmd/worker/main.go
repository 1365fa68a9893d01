package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"friendhub/internal/config"
	"friendhub/internal/infra/database"
	infraES "friendhub/internal/infra/elasticsearch"
	infraKafka "friendhub/internal/infra/kafka"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/service"
	"friendhub/pkg/logger"

	"go.uber.org/zap"
)

const groupID = "friendhub-search-indexer"

// worker 消费视频事件，维护 Elasticsearch 中的视频索引
func main() {
	reindex := flag.Bool("reindex", false, "rebuild the search index from the database before consuming")
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(database.Get(), &model.User{}, &model.Video{}); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Fatal("Failed to init elasticsearch", zap.Error(err))
	}
	defer infraES.Close()

	index := cfg.Elasticsearch.VideosIndex()
	searchService := service.NewSearchService(repository.NewVideoRepository(database.Get()), index)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	initCtx, initCancel := context.WithTimeout(ctx, time.Minute)
	if err := infraES.EnsureVideosIndex(initCtx, index); err != nil {
		initCancel()
		logger.Fatal("Failed to ensure videos index", zap.Error(err))
	}
	if *reindex {
		success, failed, err := searchService.Reindex(initCtx)
		if err != nil {
			initCancel()
			logger.Fatal("Reindex failed", zap.Error(err))
		}
		logger.Info("Reindex completed", zap.Int("success", success), zap.Int("failed", failed))
	}
	initCancel()

	topic := cfg.Kafka.Topics["video_events"]
	logger.Info("Search indexer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
		zap.String("index", index),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	infraKafka.StartVideoEventConsumer(ctx, cfg.Kafka.Brokers, topic, groupID, searchService.HandleVideoEvent)
}
