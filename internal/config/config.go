package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the binaries need.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	STT       STTConfig
	OCR       OCRConfig
	Interview InterviewConfig
	Capture   CaptureConfig
	Dialogue  DialogueConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	interview, err := loadInterviewConfig()
	if err != nil {
		return nil, err
	}

	capture, err := loadCaptureConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		STT:       loadSTTConfig(),
		OCR:       loadOCRConfig(),
		Interview: interview,
		Capture:   capture,
		Dialogue:  loadDialogueConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model backing question generation.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// STTConfig describes the whisper-compatible transcription endpoint.
type STTConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Enabled bool
}

func loadSTTConfig() STTConfig {
	apiKey := strings.TrimSpace(os.Getenv("STT_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	baseURL := getEnvOrDefault("STT_BASE_URL", "https://api.openai.com/v1")

	return STTConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   getEnvOrDefault("STT_MODEL", "whisper-1"),
		Enabled: apiKey != "",
	}
}

// OCRConfig describes the screen text recognition engine.
type OCRConfig struct {
	Language string
	Enabled  bool
}

func loadOCRConfig() OCRConfig {
	disabled, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("OCR_DISABLED")))
	return OCRConfig{
		Language: getEnvOrDefault("OCR_LANGUAGE", "eng"),
		Enabled:  !disabled,
	}
}

// InterviewConfig bounds the interview flow.
type InterviewConfig struct {
	MaxQuestions int
}

func loadInterviewConfig() (InterviewConfig, error) {
	maxQuestions := 10
	if override, err := parseOptionalIntEnv("MAX_QUESTIONS"); err != nil {
		return InterviewConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxQuestions = 1
		} else {
			maxQuestions = *override
		}
	}
	return InterviewConfig{MaxQuestions: maxQuestions}, nil
}

// CaptureConfig describes the presenter-side media devices.
type CaptureConfig struct {
	Display        string
	AudioInput     string
	SampleInterval time.Duration
}

func loadCaptureConfig() (CaptureConfig, error) {
	interval := 5 * time.Second
	if override, err := parseOptionalIntEnv("SCREEN_SAMPLE_SECONDS"); err != nil {
		return CaptureConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return CaptureConfig{}, fmt.Errorf("SCREEN_SAMPLE_SECONDS must be at least 1")
		}
		interval = time.Duration(*override) * time.Second
	}

	return CaptureConfig{
		Display:        getEnvOrDefault("CAPTURE_DISPLAY", ":0.0"),
		AudioInput:     getEnvOrDefault("CAPTURE_AUDIO_INPUT", "default"),
		SampleInterval: interval,
	}, nil
}

// DialogueConfig points the presenter orchestrator at the dialogue service.
type DialogueConfig struct {
	BaseURL string
}

func loadDialogueConfig() DialogueConfig {
	return DialogueConfig{
		BaseURL: getEnvOrDefault("DIALOGUE_BASE_URL", "http://localhost:8080/api"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
