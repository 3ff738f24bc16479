package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Cart     CartConfig
		Users    UsersConfig
		Redis    RedisConfig
		Database DatabaseConfig
		Catalog  CatalogConfig
		Checkout CheckoutConfig
		Admin    AdminConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	CartConfig struct {
		Backend     string // memory | file | redis | sql
		StorageKey  string
		FileDir     string
		TTL         time.Duration // redis only; 0 = no expiry
		IdleTimeout time.Duration // cached carts unused for this long are evicted; 0 = never
	}

	UsersConfig struct {
		Backend string // memory | sql
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	DatabaseConfig struct {
		Engine     string // postgres | pgx | mysql
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	CatalogConfig struct {
		Path string // empty = embedded default catalog
	}

	CheckoutConfig struct {
		ProcessingDelay time.Duration
	}

	// AdminConfig holds the bootstrap admin account created on API start.
	AdminConfig struct {
		Name     string
		Email    string
		Password string
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Atlantis")
	v.SetDefault("secretKey", "kq2&v!8e%x)pa7=z1w#m9r(nd@l3$t+u6c_b-yf4o^sh0gj*5i")
	v.SetDefault("defaultFromEmail", "Atlantis <noreply@localhost>")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("cart.backend", "memory")
	v.SetDefault("cart.storageKey", "atlantis_cart")
	v.SetDefault("cart.fileDir", filepath.Join(os.TempDir(), "atlantis"))
	v.SetDefault("cart.ttl", time.Duration(0))
	v.SetDefault("cart.idleTimeout", 30*time.Minute)

	v.SetDefault("users.backend", "memory")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "atlantis")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("checkout.processingDelay", 2200*time.Millisecond)

	v.SetDefault("admin.name", "Admin")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: *from,
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Cart: CartConfig{
			Backend:     strings.ToLower(v.GetString("cart.backend")),
			StorageKey:  v.GetString("cart.storageKey"),
			FileDir:     v.GetString("cart.fileDir"),
			TTL:         v.GetDuration("cart.ttl"),
			IdleTimeout: v.GetDuration("cart.idleTimeout"),
		},
		Users: UsersConfig{
			Backend: strings.ToLower(v.GetString("users.backend")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Catalog: CatalogConfig{
			Path: v.GetString("catalog.path"),
		},
		Checkout: CheckoutConfig{
			ProcessingDelay: v.GetDuration("checkout.processingDelay"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}
}
