package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "dealsense"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "dealsense-workers"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "ic-packets"

	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1/chat/completions"
	DefaultPerplexityModel = "llama-3.1-sonar-small-128k-online"
	DefaultPerplexityURL   = "https://api.perplexity.ai/chat/completions"
	DefaultGoogleSearchURL = "https://www.googleapis.com/customsearch/v1"

	DefaultEnrichmentConcurrency = 3
	DefaultPackTimeout           = 25 * time.Second
	DefaultEnrichmentCacheTTL    = 6 * time.Hour

	// DefaultWeightTolerance is the canonical tolerance for the
	// weights-sum-to-100 rule, applied uniformly at every level.
	DefaultWeightTolerance = 0.5

	DefaultWorkerConcurrency = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "dealsense"
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// MinIO
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = 24 * time.Hour
	}

	// Research
	if cfg.Research.OpenAIModel == "" {
		cfg.Research.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.Research.OpenAIBaseURL == "" {
		cfg.Research.OpenAIBaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Research.PerplexityModel == "" {
		cfg.Research.PerplexityModel = DefaultPerplexityModel
	}
	if cfg.Research.PerplexityBaseURL == "" {
		cfg.Research.PerplexityBaseURL = DefaultPerplexityURL
	}
	if cfg.Research.GoogleSearchURL == "" {
		cfg.Research.GoogleSearchURL = DefaultGoogleSearchURL
	}
	if cfg.Research.CallTimeout == 0 {
		cfg.Research.CallTimeout = 10 * time.Second
	}
	if cfg.Research.MaxRetries == 0 {
		cfg.Research.MaxRetries = 2
	}
	if cfg.Research.InitialBackoff == 0 {
		cfg.Research.InitialBackoff = time.Second
	}

	// Enrichment
	if cfg.Enrichment.Concurrency == 0 {
		cfg.Enrichment.Concurrency = DefaultEnrichmentConcurrency
	}
	if cfg.Enrichment.PackTimeout == 0 {
		cfg.Enrichment.PackTimeout = DefaultPackTimeout
	}
	if cfg.Enrichment.CacheTTL == 0 {
		cfg.Enrichment.CacheTTL = DefaultEnrichmentCacheTTL
	}

	// Scoring
	if cfg.Scoring.WeightTolerance == 0 {
		cfg.Scoring.WeightTolerance = DefaultWeightTolerance
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = time.Second
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = 5 * time.Minute
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = 8081
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
