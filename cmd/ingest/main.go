package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dinnysriramcharan/Rag-project/api"
	"github.com/dinnysriramcharan/Rag-project/internal/config"
	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/rag"
)

func main() {
	namespace := flag.String("namespace", rag.DefaultNamespace, "向量索引命名空间")
	index := flag.String("index", "", "索引名, 默认取配置中的 pinecone.index")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项] <文件或目录>\n\n将文档摄取到向量索引。支持 .pdf, .txt, .md。\n\n选项:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	// .env 便于本地单独运行
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	cfg, err := config.Load(env, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("配置校验失败", zap.Error(err))
	}

	if *index != "" {
		cfg.Pinecone.Index = *index
	}

	container, err := api.BuildContainer(cfg)
	if err != nil {
		logger.Fatal("初始化失败", zap.Error(err))
	}

	count, err := container.Ingester.IngestPath(context.Background(), path, *namespace)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyContent) {
			fmt.Println("No content found.")
			return
		}
		logger.Fatal("摄取失败", zap.String("path", path), zap.Error(err))
	}

	fmt.Printf("Ingested %d chunks into index '%s' namespace '%s'.\n", count, cfg.Pinecone.Index, *namespace)
}
