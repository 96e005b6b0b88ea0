package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Pinecone PineconeConfig `mapstructure:"pinecone"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RAG      RagConfig      `mapstructure:"rag"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// OpenAIConfig OpenAI 配置（嵌入模型 + 对话模型）
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	EmbeddingModel string `mapstructure:"embedding_model"` // 默认 text-embedding-3-small
	ChatModel      string `mapstructure:"chat_model"`      // 默认 gpt-4o-mini
	MaxRetries     int    `mapstructure:"max_retries"`
}

// PineconeConfig Pinecone 外部向量索引配置
type PineconeConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Environment    string `mapstructure:"environment"` // serverless region, 如 us-east-1
	Index          string `mapstructure:"index"`       // 索引名, 默认 documents
	BaseURL        string `mapstructure:"base_url"`    // 控制面地址, 默认 https://api.pinecone.io
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RedisConfig Redis 配置（用于嵌入向量缓存, 可选）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RagConfig RAG 管线参数
type RagConfig struct {
	ChunkSize      int     `mapstructure:"chunk_size"`       // 分块目标大小（字符数）, 默认 1200
	ChunkOverlap   int     `mapstructure:"chunk_overlap"`    // 相邻分块重叠字符数, 默认 150
	ScoreThreshold float64 `mapstructure:"score_threshold"`  // 相关度门限, 默认 0.3
	HistoryWindow  int     `mapstructure:"history_window"`   // 对话历史窗口, 默认 3 轮
	EmbedBatchSize int     `mapstructure:"embed_batch_size"` // 嵌入批大小, 默认 64
	DefaultTopK    int     `mapstructure:"default_top_k"`    // 检索默认 TopK, 默认 5
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"` // 单文件大小限制（字节）, 默认 10MB
}

var globalConfig *Config

// Load 加载配置
// env: 环境名称（dev, prod, test）
// configPath: 配置文件路径（可选）
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件名和路径
	if configPath == "" {
		v.SetConfigName(env) // dev.yaml, prod.yaml
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetConfigType("yaml")

	// 读取环境变量（优先级高于配置文件）
	v.SetEnvPrefix("APP") // 环境变量前缀：APP_
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 支持嵌套配置：APP_OPENAI_API_KEY

	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// setDefaults 注册缺省值, 配置文件可以只写需要覆盖的项
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.max_retries", 3)

	v.SetDefault("pinecone.index", "documents")
	v.SetDefault("pinecone.base_url", "https://api.pinecone.io")
	v.SetDefault("pinecone.timeout_seconds", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("rag.chunk_size", 1200)
	v.SetDefault("rag.chunk_overlap", 150)
	v.SetDefault("rag.score_threshold", 0.3)
	v.SetDefault("rag.history_window", 3)
	v.SetDefault("rag.embed_batch_size", 64)
	v.SetDefault("rag.default_top_k", 5)

	v.SetDefault("upload.max_file_size", 10*1024*1024)
}

// Validate 校验外部服务凭证, 缺失时启动即失败, 不对外提供任何请求服务
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI API Key 未配置（openai.api_key 或 APP_OPENAI_API_KEY）")
	}
	if c.Pinecone.APIKey == "" {
		return fmt.Errorf("Pinecone API Key 未配置（pinecone.api_key 或 APP_PINECONE_API_KEY）")
	}
	if c.Pinecone.Environment == "" {
		return fmt.Errorf("Pinecone Environment 未配置（pinecone.environment 或 APP_PINECONE_ENVIRONMENT）")
	}
	return nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("配置未初始化，请先调用 Load()")
	}
	return globalConfig
}
