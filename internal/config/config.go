package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	HTTPAddr     string
	DatabaseURL  string
	RedisURL     string
	CORSAllowAll bool
	CORSOrigins  []string

	// LLM collaborators (Gemini)
	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string

	// Qualification tuning
	QualifyThreshold int
	SessionTTL       time.Duration

	// Meeting hand-off
	MeetingLinkURL string

	// CRM (Brevo)
	CRMEnabled    bool
	BrevoAPIKey   string
	BrevoBaseURL  string
	BrevoListID   int
	AsynqQueue    string
	CRMMaxRetries int

	// Sales notifications
	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	SalesInbox       string

	// WhatsApp channel (gowa-compatible gateway)
	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	// RAG (Qdrant)
	RAGEnabled       string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Public widget rate limit (requests per second per IP)
	ChatRateLimit float64
	ChatRateBurst int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	crmEnabled := strings.EqualFold(getEnv("CRM_ENABLED", "true"), "true")

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),

		QualifyThreshold: mustInt(getEnv("QUALIFY_THRESHOLD", "60"), 60),
		SessionTTL:       mustDuration(getEnv("SESSION_TTL", "24h")),

		MeetingLinkURL: getEnv("MEETING_LINK_URL", ""),

		CRMEnabled:    crmEnabled && brevoAPIKey != "",
		BrevoAPIKey:   brevoAPIKey,
		BrevoBaseURL:  getEnv("BREVO_BASE_URL", "https://api.brevo.com/v3"),
		BrevoListID:   mustInt(getEnv("BREVO_CHATBOT_LIST_ID", "0"), 0),
		AsynqQueue:    getEnv("ASYNQ_QUEUE", "default"),
		CRMMaxRetries: mustInt(getEnv("CRM_MAX_RETRIES", "5"), 5),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Prospect Chat"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesInbox:       getEnv("SALES_INBOX", ""),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		RAGEnabled:       getEnv("RAG_ENABLED", "false"),
		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "company_docs"),

		ChatRateLimit: mustFloat(getEnv("CHAT_RATE_LIMIT", "2"), 2),
		ChatRateBurst: mustInt(getEnv("CHAT_RATE_BURST", "5"), 5),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MeetingLinkURL == "" {
		return nil, fmt.Errorf("MEETING_LINK_URL is required")
	}
	if cfg.CRMEnabled && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when CRM sync is enabled")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "" || cfg.SalesInbox == "") {
		return nil, fmt.Errorf("SMTP_HOST, EMAIL_FROM_ADDRESS and SALES_INBOX are required when email is enabled")
	}
	if cfg.QualifyThreshold < 0 || cfg.QualifyThreshold > 100 {
		return nil, fmt.Errorf("QUALIFY_THRESHOLD must be within 0-100")
	}

	return cfg, nil
}

// IsRAGEnabled reports whether the retrieval collaborator should be wired.
func (c *Config) IsRAGEnabled() bool {
	return strings.EqualFold(c.RAGEnabled, "true") && c.QdrantURL != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil {
		return fallback
	}
	return n
}

func mustFloat(value string, fallback float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%g", &f); err != nil {
		return fallback
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
