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

const (
	EngineCSV      = "csv"
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"
)

type (
	Config struct {
		Build        string
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Admin        AdminConfig
		Redis        RedisConfig
		Completion   CompletionConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		AllowedOrigins            []string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		DataDir    string // csv tables & sqlite file
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool
	}

	AdminConfig struct {
		Username string
		Password string
		Passcode string
		ViewAll  bool // admin list & calendar views show every schedule
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	CompletionConfig struct {
		SweepInterval time.Duration // 0 disables the periodic sweep
	}
)

func (dc DatabaseConfig) Address() string {
	if dc.Port == "" {
		return dc.Host
	}
	return dc.Host + ":" + dc.Port
}

// NewConfig loads the app configuration from the environment.
// Keys are read from env vars prefixed by the value of ENV (e.g. DEV_SERVER_HOST),
// optionally pre-loaded from config/.env.<env>.
func NewConfig() *Config {
	conf := viper.New()
	setDefaults(conf)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Build:        conf.GetString("build"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			DebugHost:                 conf.GetString("server.debugHost"),
			AllowedOrigins:            conf.GetStringSlice("server.allowedOrigins"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(conf.GetString("database.engine")),
			DataDir:    conf.GetString("database.dataDir"),
			Name:       conf.GetString("database.name"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetString("database.port"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
		Admin: AdminConfig{
			Username: conf.GetString("admin.username"),
			Password: conf.GetString("admin.password"),
			Passcode: conf.GetString("admin.passcode"),
			ViewAll:  conf.GetBool("admin.viewAll"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redis.addr"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
		Completion: CompletionConfig{
			SweepInterval: conf.GetDuration("completion.sweepInterval"),
		},
	}
}

func setDefaults(conf *viper.Viper) {
	conf.SetTypeByDefaultValue(true)

	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Ratiba")
	conf.SetDefault("secretKey", "") // generated at startup when empty
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "0.0.0.0:8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.allowedOrigins", []string{"*"})
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("database.engine", EngineCSV)
	conf.SetDefault("database.dataDir", "data")
	conf.SetDefault("database.name", "ratiba")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.disableTLS", false)

	conf.SetDefault("admin.username", "admin")
	conf.SetDefault("admin.password", "")
	conf.SetDefault("admin.passcode", "")
	conf.SetDefault("admin.viewAll", true)

	conf.SetDefault("redis.addr", "")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	conf.SetDefault("completion.sweepInterval", time.Duration(0))
}

// configDir returns the directory holding the .env files: $CONFIG_DIR, or ./config.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
