package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	Gemini    GeminiConfig
	History   HistoryConfig
	Documents DocumentConfig

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RPS            float64
	RPSBurst       int
	CallTimeout    time.Duration
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	MapsModel   string
	SpeechModel string
	Voice       string
}

type HistoryConfig struct {
	Cap      int
	FilePath string
	PGDSN    string
}

type DocumentConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		Gemini: GeminiConfig{
			APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:       strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
			MapsModel:   strings.TrimSpace(os.Getenv("GEMINI_MAPS_MODEL")),
			SpeechModel: strings.TrimSpace(os.Getenv("GEMINI_SPEECH_MODEL")),
			Voice:       strings.TrimSpace(os.Getenv("GEMINI_TTS_VOICE")),
		},
		History: HistoryConfig{
			Cap:      envInt("HISTORY_CAP", 5),
			FilePath: firstNonEmpty(strings.TrimSpace(os.Getenv("HISTORY_FILE")), filepath.Join("tmp", "history.json")),
			PGDSN:    strings.TrimSpace(os.Getenv("HISTORY_PG_DSN")),
		},
		Documents:      loadDocumentConfig(env),
		RetryAttempts:  envInt("LLM_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: envDuration("LLM_RETRY_BASE_DELAY", time.Second),
		RPS:            envFloat("LLM_RPS", 0),
		RPSBurst:       envInt("LLM_RPS_BURST", 1),
		CallTimeout:    envDuration("LLM_CALL_TIMEOUT", 60*time.Second),
	}, nil
}

func loadDocumentConfig(env string) DocumentConfig {
	endpoint := resolveDocEndpoint(env)
	return DocumentConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOC_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOC_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DOC_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("DOC_S3_BUCKET")), "medidecode-documents"),
		UseSSL:    resolveDocUseSSL(env),
	}
}

func resolveDocEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("DOC_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("DOC_S3_ENDPOINT"))
}

func resolveDocUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("DOC_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
