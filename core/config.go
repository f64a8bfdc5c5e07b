package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug                     bool
		TestMode                  bool
		AppName                   string
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		SecretKey                 string
		FrontendBaseURL           string
		WorkDir                   string
		RollbarToken              string
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration
		defaultFromEmail          string

		Server      ServerConfig
		Database    DatabaseConfig
		ObjectStore ObjectStoreConfig
		Cache       CacheConfig
		Calendar    CalendarConfig
		RateLimit   RateLimitConfig
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		MaxUploadSize             int64
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	ObjectStoreConfig struct {
		Driver        string // s3 | local
		Bucket        string
		Region        string
		Endpoint      string
		AccessKey     string
		SecretKey     string
		PublicBaseURL string
		LocalDir      string
	}

	CacheConfig struct {
		Disabled      bool
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		CalendarTTL   time.Duration
	}

	CalendarConfig struct {
		ThemeFile string
	}

	RateLimitConfig struct {
		JoinPerMinute int
		JoinBurst     int
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

func (db DatabaseConfig) InMemory() bool {
	return db.Engine == "memory"
}

// NewConfig loads the configuration of the current ENV from the environment and an optional
// config/.env.<env> file, on top of the defaults below.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "FreeTime")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2u!x8-t0l$-m1q_f9wz+e3^r7(vb&n4ye5h#c6p)dj*sga")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("maxUploadSize", int64(6<<20))

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "freetime")
	v.SetDefault("dbUser", "freetime")
	v.SetDefault("dbPassword", "freetime")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("storageDriver", "local")
	v.SetDefault("storageBucket", "avatars")
	v.SetDefault("storageRegion", "us-east-1")
	v.SetDefault("storageEndpoint", "")
	v.SetDefault("storageAccessKey", "")
	v.SetDefault("storageSecretKey", "")
	v.SetDefault("storagePublicBaseURL", "http://localhost:8000/media")
	v.SetDefault("storageLocalDir", "media")

	v.SetDefault("cacheDisabled", false)
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("calendarCacheTTL", 10*time.Minute)

	v.SetDefault("calendarThemeFile", "")

	v.SetDefault("joinRatePerMinute", 10)
	v.SetDefault("joinRateBurst", 5)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("dbEngine", "memory")
		v.SetDefault("cacheDisabled", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Build:                     v.GetString("build"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		WorkDir:                   wd,
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:                   v.GetString("serverAddress"),
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			MaxUploadSize:             v.GetInt64("maxUploadSize"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		ObjectStore: ObjectStoreConfig{
			Driver:        v.GetString("storageDriver"),
			Bucket:        v.GetString("storageBucket"),
			Region:        v.GetString("storageRegion"),
			Endpoint:      v.GetString("storageEndpoint"),
			AccessKey:     v.GetString("storageAccessKey"),
			SecretKey:     v.GetString("storageSecretKey"),
			PublicBaseURL: v.GetString("storagePublicBaseURL"),
			LocalDir:      v.GetString("storageLocalDir"),
		},
		Cache: CacheConfig{
			Disabled:      v.GetBool("cacheDisabled"),
			RedisAddr:     v.GetString("redisAddr"),
			RedisPassword: v.GetString("redisPassword"),
			RedisDB:       v.GetInt("redisDB"),
			CalendarTTL:   v.GetDuration("calendarCacheTTL"),
		},
		Calendar: CalendarConfig{
			ThemeFile: v.GetString("calendarThemeFile"),
		},
		RateLimit: RateLimitConfig{
			JoinPerMinute: v.GetInt("joinRatePerMinute"),
			JoinBurst:     v.GetInt("joinRateBurst"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: in-memory storage, no cache, fixed secret.
func NewTestConfig() *Config {
	return &Config{
		Debug:                     false,
		TestMode:                  true,
		AppName:                   "FreeTime",
		Env:                       "TEST",
		Build:                     "test",
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		defaultFromEmail:          "noreply@localhost",
		Server: ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			ShutdownTimeout:           time.Second,
			MaxUploadSize:             6 << 20,
		},
		Database:    DatabaseConfig{Engine: "memory"},
		ObjectStore: ObjectStoreConfig{Driver: "local", PublicBaseURL: "http://localhost:8000/media"},
		Cache:       CacheConfig{Disabled: true, CalendarTTL: 10 * time.Minute},
		RateLimit:   RateLimitConfig{JoinPerMinute: 10, JoinBurst: 5},
	}
}
