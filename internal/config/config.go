package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslation "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr                string `env:"LISTEN_ADDR" validate:"required"`
	DBPath                    string `env:"DB_PATH" validate:"required"`
	UploadsPath               string `env:"UPLOADS_PATH" validate:"required"`
	LogLevel                  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile                   string `env:"LOG_FILE"`
	LogFormat                 string `env:"LOG_FORMAT" validate:"oneof=json text"`
	ExportAllWhenUnreferenced bool   `env:"EXPORT_ALL_WHEN_UNREFERENCED"`
	SeedFile                  string `env:"SEED_FILE" validate:"omitempty,file"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	exportAll, err := getEnvBool("EXPORT_ALL_WHEN_UNREFERENCED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:                getEnv("LISTEN_ADDR", ":8000"),
		DBPath:                    getEnv("DB_PATH", "/data/mcprogress.db"),
		UploadsPath:               getEnv("UPLOADS_PATH", "/data/uploads"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFile:                   getEnv("LOG_FILE", ""),
		LogFormat:                 getEnv("LOG_FORMAT", "json"),
		ExportAllWhenUnreferenced: exportAll,
		SeedFile:                  getEnv("SEED_FILE", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Validate reports every invalid setting, named by its environment variable.
func (c *Config) Validate() error {
	validate, translator := newValidator()
	err := validate.Struct(c)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, e := range verrs {
		errs = append(errs, errors.New(e.Translate(translator)))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	enLocale := en.New()
	translator, found := ut.New(enLocale, enLocale).GetTranslator("en")
	if !found {
		panic(fmt.Errorf("en translator was not found"))
	}
	if err := enTranslation.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(fmt.Errorf("translator was not registered: %w", err))
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return validate, translator
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid configuration: %s must be a boolean, got %q", key, val)
	}
	return b, nil
}
