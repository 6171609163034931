package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderWhisperCLI = "whisper_cli"
)

type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Speech      SpeechConfig      `yaml:"speech"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	History     HistoryConfig     `yaml:"history"`
	Upload      UploadConfig      `yaml:"upload"`
	Narration   NarrationConfig   `yaml:"narration"`
	Report      ReportConfig      `yaml:"report"`
}

// LLMConfig configures the one language-model client shared by the image
// describer and the segment summarizer. Keys are read from the environment.
type LLMConfig struct {
	Provider          string   `yaml:"provider"`
	VisionModel       string   `yaml:"vision_model"`
	TextModel         string   `yaml:"text_model"`
	Temperature       float32  `yaml:"temperature"`
	MaxTokens         int      `yaml:"max_tokens"`
	MaxRetries        int      `yaml:"max_retries"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	BaseURL           string   `yaml:"base_url"`
	APIKeys           []string `yaml:"-"`
}

type SpeechConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
	Model      string `yaml:"model"`
}

type FFmpegConfig struct {
	VideoCodec string `yaml:"video_codec"`
	AudioCodec string `yaml:"audio_codec"`
	Preset     string `yaml:"preset"`
	SampleRate int    `yaml:"sample_rate"`
}

type PipelineConfig struct {
	NumParts      int    `yaml:"num_parts"`
	FrameInterval int    `yaml:"frame_interval"`
	FramesDir     string `yaml:"frames_dir"`
	WorkDir       string `yaml:"work_dir"`
	OutputVideo   string `yaml:"output_video"`
}

// PathsConfig is used by watch mode only
type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	// RescanSchedule is a cron spec (e.g. "@every 5m") for re-listing the
	// input folder in watch mode; empty disables it
	RescanSchedule string `yaml:"rescan_schedule"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type UploadConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
	// Endpoint targets an S3-compatible service instead of AWS
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type NarrationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	Voice   string `yaml:"voice"`
	File    string `yaml:"file"`
}

type ReportConfig struct {
	Markdown bool `yaml:"markdown"`
	Docx     bool `yaml:"docx"`
}

// Default returns the settings whose zero value is meaningful, so a file
// can still set them to zero explicitly.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Temperature: 0.5,
			MaxRetries:  2,
		},
	}
}

// Load reads the YAML file at path, merges secrets from the environment
// (and a .env file when present) and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Read parses the file and environment and fills defaults without checking
// provider credentials. Commands that never call a model use it.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		c.LLM.APIKeys = splitKeys(os.Getenv("GEMINI_API_KEYS"))
		if len(c.LLM.APIKeys) == 0 {
			c.LLM.APIKeys = splitKeys(os.Getenv("GEMINI_API_KEY"))
		}
	case ProviderOpenAI:
		c.LLM.APIKeys = splitKeys(os.Getenv("OPENAI_API_KEY"))
	}

	c.Upload.AccessKey = strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID"))
	c.Upload.SecretKey = strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY"))
}

// OpenAIKey returns the key used by the hosted speech and narration services
func (c *Config) OpenAIKey() string {
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func splitKeys(v string) []string {
	var keys []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Provider != ProviderGemini && c.LLM.Provider != ProviderOpenAI {
		return fmt.Errorf("llm.provider must be %q or %q", ProviderGemini, ProviderOpenAI)
	}
	if len(c.LLM.APIKeys) == 0 {
		return fmt.Errorf("no API key for llm provider %q", c.LLM.Provider)
	}

	if c.Speech.Provider == "" {
		c.Speech.Provider = ProviderWhisperCLI
	}
	switch c.Speech.Provider {
	case ProviderWhisperCLI:
		if c.Speech.ModelPath == "" {
			return fmt.Errorf("speech.model_path is required")
		}
		if c.Speech.BinaryPath == "" {
			return fmt.Errorf("speech.binary_path is required")
		}
	case ProviderOpenAI:
		if c.OpenAIKey() == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for speech provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("speech.provider must be %q or %q", ProviderWhisperCLI, ProviderOpenAI)
	}

	if c.Narration.Enabled && c.OpenAIKey() == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when narration is enabled")
	}

	if c.Upload.Enabled && c.Upload.Bucket == "" {
		return fmt.Errorf("upload.bucket is required when upload is enabled")
	}
	if (c.Upload.AccessKey == "") != (c.Upload.SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	if c.Pipeline.NumParts < 0 {
		return fmt.Errorf("pipeline.num_parts must not be negative")
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.LLM.VisionModel == "" {
		c.LLM.VisionModel = defaultModel(c.LLM.Provider)
	}
	if c.LLM.TextModel == "" {
		c.LLM.TextModel = defaultModel(c.LLM.Provider)
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}

	if c.Speech.Language == "" {
		c.Speech.Language = "en"
	}
	if c.Speech.Threads == 0 {
		c.Speech.Threads = 4
	}
	if c.Speech.Model == "" {
		c.Speech.Model = "whisper-1"
	}

	if c.FFmpeg.VideoCodec == "" {
		c.FFmpeg.VideoCodec = "libx264"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "aac"
	}
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = "medium"
	}
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = 16000
	}

	if c.Pipeline.NumParts == 0 {
		c.Pipeline.NumParts = 3
	}
	if c.Pipeline.FrameInterval == 0 {
		c.Pipeline.FrameInterval = 2
	}
	if c.Pipeline.FramesDir == "" {
		c.Pipeline.FramesDir = "frames"
	}
	if c.Pipeline.WorkDir == "" {
		c.Pipeline.WorkDir = "."
	}
	if c.Pipeline.OutputVideo == "" {
		c.Pipeline.OutputVideo = "final_video_with_summary.mp4"
	}

	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}

	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 1
	}

	if c.Narration.Model == "" {
		c.Narration.Model = "tts-1"
	}
	if c.Narration.Voice == "" {
		c.Narration.Voice = "alloy"
	}
	if c.Narration.File == "" {
		c.Narration.File = "summary_narration.mp3"
	}
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o"
	}
	return "gemini-2.5-flash"
}
