package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", MaxUploadMB: 32},
		Export: ExportConfig{Dir: "./exports"},
		LLM:    LLMConfig{APIKey: "sk-test", Model: "gpt-4o"},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("complete config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.LLM.APIKey = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, CodeConfigError, CodeOf(err))
	})

	t.Run("missing addr", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Addr = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, CodeConfigError, CodeOf(err))
	})

	t.Run("missing export dir", func(t *testing.T) {
		cfg := validConfig()
		cfg.Export.Dir = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, CodeConfigError, CodeOf(err))
	})
}
