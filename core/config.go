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
		Env              string
		Debug            bool
		TestMode         bool
		Build            string
		AppName          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
		Posts    PostsConfig
	}

	ServerConfig struct {
		Host               string
		Port               string
		DebugHost          string
		PublicBaseURL      string
		DisableReqLogs     bool
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		StudentTokenTTL    time.Duration
	}

	DatabaseConfig struct {
		Engine  string // mongo | memory
		URI     string
		Name    string
		Timeout time.Duration
	}

	UploadsConfig struct {
		Backend string // disk | s3
		Dir     string
		MaxSize int64
		S3      S3Config
	}

	S3Config struct {
		Bucket    string
		Region    string
		Endpoint  string
		AccessKey string
		SecretKey string
	}

	PostsConfig struct {
		// RequireAuthOnCreate puts POST /addPost behind the credential gate.
		RequireAuthOnCreate bool
	}
)

// Addr is the address the API server listens on.
func (sc ServerConfig) Addr() string {
	return sc.Host + ":" + sc.Port
}

// NewConfig reads the configuration for the current ENV (DEV by default).
// Values come from, in order of precedence: the environment, config/.env.<env>, defaults.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	wd := Getwd()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Roster")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.publicBaseURL", "http://localhost:5000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.studentTokenTTL", 4*time.Hour)

	v.SetDefault("database.engine", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "roster")
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("uploads.backend", "disk")
	v.SetDefault("uploads.dir", filepath.Join(wd, "upload", "images"))
	v.SetDefault("uploads.maxSize", int64(5*1024*1024))
	v.SetDefault("uploads.s3.bucket", "")
	v.SetDefault("uploads.s3.region", "us-east-1")
	v.SetDefault("uploads.s3.endpoint", "")
	v.SetDefault("uploads.s3.accessKey", "")
	v.SetDefault("uploads.s3.secretKey", "")

	v.SetDefault("posts.requireAuthOnCreate", false)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// conventional names used by hosting platforms
	_ = v.BindEnv("server.port", env+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.uri", env+"_DATABASE_URI", "MONGO_URI")
	_ = v.BindEnv("secretKey", env+"_SECRETKEY", "SECRET_KEY")

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		WorkDir:          wd,
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetString("server.port"),
			DebugHost:          v.GetString("server.debugHost"),
			PublicBaseURL:      strings.TrimRight(v.GetString("server.publicBaseURL"), "/"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			StudentTokenTTL:    v.GetDuration("server.studentTokenTTL"),
		},
		Database: DatabaseConfig{
			Engine:  v.GetString("database.engine"),
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Timeout: v.GetDuration("database.timeout"),
		},
		Uploads: UploadsConfig{
			Backend: v.GetString("uploads.backend"),
			Dir:     v.GetString("uploads.dir"),
			MaxSize: v.GetInt64("uploads.maxSize"),
			S3: S3Config{
				Bucket:    v.GetString("uploads.s3.bucket"),
				Region:    v.GetString("uploads.s3.region"),
				Endpoint:  v.GetString("uploads.s3.endpoint"),
				AccessKey: v.GetString("uploads.s3.accessKey"),
				SecretKey: v.GetString("uploads.s3.secretKey"),
			},
		},
		Posts: PostsConfig{
			RequireAuthOnCreate: v.GetBool("posts.requireAuthOnCreate"),
		},
	}
}
