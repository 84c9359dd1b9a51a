package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		AppName  string
		Build    string

		RollbarToken string

		// SecretKey signs sandbox-issued tokens; the portal itself never
		// verifies signatures.
		SecretKey string

		// TokenPath is where the raw session token is persisted between runs.
		TokenPath string

		API APIConfig
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "q0w9-drs)maf$+31=kl&jazh5(p!x)#*g7(#mb2n^$wikm9pxy")
	v.SetDefault("tokenPath", defaultTokenPath())
	v.SetDefault("apiBaseUrl", "http://localhost:8000/v1")
	v.SetDefault("apiTimeout", 30*time.Second)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		SecretKey:    v.GetString("secretKey"),
		TokenPath:    v.GetString("tokenPath"),
		API: APIConfig{
			BaseURL: v.GetString("apiBaseUrl"),
			Timeout: v.GetDuration("apiTimeout"),
		},
	}
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "darasa", "token")
}

// Getwd tries to find the project root.
// go-test changes the working directory to the test package being run during tests...
// so we walk up until we hit the directory holding go.mod.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
