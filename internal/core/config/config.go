package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name    string
	Env     string
	BaseURL string // 邮件里的链接前缀，如 https://tours.example.com
	HTTP    HTTP
	Admin   AdminHTTP
}

func (a App) IsProd() bool { return a.Env == "prod" || a.Env == "production" }

type Log struct {
	Level string
	JSON  bool
	// 文件切割（File 为空则只写 stdout）
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
	CookieName        string
	CookieTTLHours    int
	CookieSecure      bool
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Auth struct {
	BcryptCost            int
	ResetTokenTTLMin      int
	PasswordChangeSkewSec int
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TourTTLSec int    `mapstructure:"tour_ttl_sec"`
}

type DB struct {
	Driver             string // postgres | mysql | mongo
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Mongo struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type Payment struct {
	StripeSecretKey string
	WebhookSecret   string
	Currency        string
	ImageBaseURL    string
}

type Limits struct {
	RPS               float64
	Burst             int
	AuthRPS           float64
	AuthBurst         int
	MaxConcurrent     int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
	// TrustedProxies 允许改写客户端 IP 的反代（IP 或 CIDR）；为空时只认 TCP 对端，X-Forwarded-For 一律忽略
	TrustedProxies []string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	Auth    Auth
	DB      DB
	Mongo   Mongo   `mapstructure:"mongo"`
	Redis   Redis   `mapstructure:"redis"`
	Mail    Mail    `mapstructure:"mail"`
	Payment Payment `mapstructure:"payment"`
	Limits  Limits  `mapstructure:"limits"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tour-booking-api")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.baseurl", "http://127.0.0.1:8000")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8000)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)

	v.SetDefault("jwt.issuer", "tour-booking-api")
	v.SetDefault("jwt.accesstokenttlmin", 90*24*60)
	v.SetDefault("jwt.cookiename", "jwt")
	v.SetDefault("jwt.cookiettlhours", 90*24)

	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("auth.resettokenttlmin", 10)
	v.SetDefault("auth.passwordchangeskewsec", 1)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 50)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("mongo.database", "tours")
	v.SetDefault("mongo.timeout_sec", 10)
	v.SetDefault("redis.tour_ttl_sec", 300)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "noreply@tours.local")
	v.SetDefault("mail.fromname", "Tour Booking")
	v.SetDefault("payment.currency", "usd")

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.authrps", 1)
	v.SetDefault("limits.authburst", 10)
	v.SetDefault("limits.maxconcurrent", 300)
	v.SetDefault("limits.maxbodybytes", 16<<20)
	v.SetDefault("limits.requesttimeoutsec", 10)
}

// Load 读取 yaml + APP_ 前缀环境变量（APP_JWT_SECRET 覆盖 jwt.secret）
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	if c.Auth.ResetTokenTTLMin <= 0 {
		return errors.New("config: auth.resetTokenTTLMin must be positive")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "mongo":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	for _, p := range c.Limits.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("config: limits.trustedProxies: bad entry %q", p)
		}
	}
	return nil
}
