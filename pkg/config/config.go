package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Ollama  OllamaConfig
	Safety  SafetyConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path      string
	BackupDir string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type OllamaConfig struct {
	URL                string
	DefaultModel       string
	PreferredModels    []string
	MedicalTemperature float64
	GeneralTemperature float64
	MaxTokens          int
	TimeoutSec         int
	PullTimeoutSec     int
}

// SafetyConfig holds the content-heuristic word lists. They are configuration,
// not code, so deployments can extend them without a rebuild.
type SafetyConfig struct {
	EmergencyKeywords []string
	ForbiddenPhrases  []string
	DrugLexicon       []string
	MaxQueryLength    int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/medassist")

	viper.SetEnvPrefix("MEDASSIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 180)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/medical_assistant.db")
	viper.SetDefault("sqlite.backupDir", "./backups")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 60)

	viper.SetDefault("ollama.url", "http://127.0.0.1:11434")
	viper.SetDefault("ollama.defaultModel", "llama3.1:8b")
	viper.SetDefault("ollama.preferredModels", []string{
		"llama3.1:8b",
		"llama3:8b",
		"mistral:7b",
		"codellama:7b",
	})
	viper.SetDefault("ollama.medicalTemperature", 0.2)
	viper.SetDefault("ollama.generalTemperature", 0.7)
	viper.SetDefault("ollama.maxTokens", 2048)
	viper.SetDefault("ollama.timeoutSec", 120)
	viper.SetDefault("ollama.pullTimeoutSec", 300)

	viper.SetDefault("safety.emergencyKeywords", []string{
		"chest pain", "difficulty breathing", "severe headache", "stroke",
		"heart attack", "seizure", "unconscious", "severe bleeding",
		"poisoning", "overdose", "severe allergic reaction", "anaphylaxis",
	})
	viper.SetDefault("safety.forbiddenPhrases", []string{
		"you definitely have",
		"you are diagnosed with",
		"take this medication",
		"stop taking your medication",
		"you don't need to see a doctor",
		"this is definitely",
	})
	viper.SetDefault("safety.drugLexicon", []string{
		"aspirin", "ibuprofen", "acetaminophen", "tylenol", "advil",
		"metformin", "lisinopril", "amlodipine", "simvastatin", "omeprazole",
		"levothyroxine", "albuterol", "metoprolol", "hydrochlorothiazide",
	})
	viper.SetDefault("safety.maxQueryLength", 5000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
