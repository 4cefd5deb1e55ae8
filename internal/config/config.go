package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Tasks    TasksConfig
	Vertex   VertexConfig
	RAG      RAGConfig
	AI       AIConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig 认证配置
// JWT 通过托管认证服务的 JWKS 端点验证（RS256）
type AuthConfig struct {
	JWKSURI        string
	Issuer         string
	Audience       string
	JWKSCacheTTL   int    // JWKS 缓存时间（秒）
	InternalSecret string // 内部流水线端点的共享密钥
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Type            string // gcs, minio, local
	UploadsBucket   string
	ProcessedBucket string
	LocalBasePath   string
	MinIO           MinIOConfig
}

// MinIOConfig MinIO 配置
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// TasksConfig 任务队列配置
type TasksConfig struct {
	Type      string // cloudtasks, local
	QueuePath string // projects/PROJECT/locations/LOCATION/queues/QUEUE
	ImportURL string // Stage-4 导入回调地址
}

// VertexConfig Vertex AI 配置
type VertexConfig struct {
	ProjectID string
	Region    string
}

// RAGConfig RAG 导入配置
type RAGConfig struct {
	ChunkSize    int
	ChunkOverlap int
	MaxFileSize  int64 // 上传文件大小上限（字节）
}

// AIConfig AI配置
type AIConfig struct {
	Provider string
	OpenAI   OpenAIConfig
	Retry    RetryConfig
}

// OpenAIConfig OpenAI 兼容模型配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// RetryConfig 聊天模型重试配置
type RetryConfig struct {
	Attempts           int
	WaitInitialSeconds int
	WaitMaxSeconds     int
	WaitMultiplier     int
}

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("FORMLEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "formlead")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "formlead")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.jwksCacheTTL", 3600)

	// Storage
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.uploadsBucket", "formlead-rag-uploads")
	v.SetDefault("storage.processedBucket", "formlead-rag-processed")
	v.SetDefault("storage.localBasePath", "./data/objects")

	// Tasks
	v.SetDefault("tasks.type", "local")

	// Vertex
	v.SetDefault("vertex.region", "us-central1")

	// RAG
	v.SetDefault("rag.chunkSize", 1000)
	v.SetDefault("rag.chunkOverlap", 200)
	v.SetDefault("rag.maxFileSize", 10*1024*1024)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", 60)
	v.SetDefault("ai.retry.attempts", 3)
	v.SetDefault("ai.retry.waitInitialSeconds", 1)
	v.SetDefault("ai.retry.waitMaxSeconds", 10)
	v.SetDefault("ai.retry.waitMultiplier", 2)
}
