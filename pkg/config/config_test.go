package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ollama.URL != "http://127.0.0.1:11434" {
		t.Errorf("ollama url = %q", cfg.Ollama.URL)
	}
	if cfg.Ollama.MedicalTemperature != 0.2 {
		t.Errorf("medical temperature = %v, want 0.2", cfg.Ollama.MedicalTemperature)
	}
	if cfg.Ollama.GeneralTemperature != 0.7 {
		t.Errorf("general temperature = %v, want 0.7", cfg.Ollama.GeneralTemperature)
	}
	if cfg.Ollama.MaxTokens != 2048 {
		t.Errorf("max tokens = %d, want 2048", cfg.Ollama.MaxTokens)
	}
	if len(cfg.Safety.EmergencyKeywords) == 0 {
		t.Error("no default emergency keywords")
	}
	if len(cfg.Safety.ForbiddenPhrases) == 0 {
		t.Error("no default forbidden phrases")
	}
	if len(cfg.Safety.DrugLexicon) == 0 {
		t.Error("no default drug lexicon")
	}
	if cfg.Redis.Enabled {
		t.Error("redis enabled by default")
	}
}
