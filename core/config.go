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
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string

		Server   ServerConfig
		Tenant   TenantConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	TenantConfig struct {
		// Header and QueryParam are the explicit tenant signals consulted
		// when subdomain resolution yields nothing.
		Header     string
		QueryParam string
		// AllowQueryParam should stay off outside DEV; the query param
		// fallback is a local convenience only.
		AllowQueryParam bool
		// SystemSubdomain is the reserved subdomain hosting super-admin
		// accounts.
		SystemSubdomain string
		// FallbackCode is used when a tenant yields no usable short code.
		FallbackCode string
	}

	DatabaseConfig struct {
		URI            string
		Name           string
		ConnectTimeout time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k#2pbvz&$8_mq(74=yd+f0c^w!x5r)hj3ne9u@sg1lt6io*a")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("tenant.header", "X-Tenant-ID")
	v.SetDefault("tenant.queryParam", "tenantId")
	v.SetDefault("tenant.allowQueryParam", false)
	v.SetDefault("tenant.systemSubdomain", "system")
	v.SetDefault("tenant.fallbackCode", "SCH")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "shule")
	v.SetDefault("database.connectTimeout", 10*time.Second)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Tenant: TenantConfig{
			Header:          v.GetString("tenant.header"),
			QueryParam:      v.GetString("tenant.queryParam"),
			AllowQueryParam: v.GetBool("tenant.allowQueryParam") || v.GetBool("debug"),
			SystemSubdomain: v.GetString("tenant.systemSubdomain"),
			FallbackCode:    v.GetString("tenant.fallbackCode"),
		},
		Database: DatabaseConfig{
			URI:            v.GetString("database.uri"),
			Name:           v.GetString("database.name"),
			ConnectTimeout: v.GetDuration("database.connectTimeout"),
		},
	}
}
