package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	ServerAddr string `mapstructure:"SERVER_ADDR"`
	Debug      bool   `mapstructure:"DEBUG"` // 是否开启调试模式

	DBDriver   string `mapstructure:"DB_DRIVER"` // mysql 或 memory
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	CallbackSecret string `mapstructure:"CALLBACK_SECRET"`
	AdminEmails    string `mapstructure:"ADMIN_EMAILS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	FrontendURL  string `mapstructure:"FRONTEND_URL"`

	StorageBackend     string `mapstructure:"STORAGE_BACKEND"` // local, s3, gcs
	LocalStoragePath   string `mapstructure:"LOCAL_STORAGE_PATH"`
	PublicBaseURL      string `mapstructure:"PUBLIC_BASE_URL"`
	S3Region           string `mapstructure:"S3_REGION"`
	S3Bucket           string `mapstructure:"S3_BUCKET"`
	GCSBucketName      string `mapstructure:"GCS_BUCKET_NAME"`
	GCSCredentialsFile string `mapstructure:"GCS_CREDENTIALS_FILE"`

	TransactionFeePercent float64       `mapstructure:"TRANSACTION_FEE_PERCENT"`
	NotifyWorkers         int           `mapstructure:"NOTIFY_WORKERS"`
	EmailRetryInterval    time.Duration `mapstructure:"EMAIL_RETRY_INTERVAL"`
	DraftAutosaveInterval time.Duration `mapstructure:"DRAFT_AUTOSAVE_INTERVAL"`
	DraftSessionTTL       time.Duration `mapstructure:"DRAFT_SESSION_TTL"`
}

var defaults = map[string]interface{}{
	"SERVER_ADDR":             ":8080",
	"DEBUG":                   false,
	"DB_DRIVER":               "mysql",
	"DB_HOST":                 "",
	"DB_PORT":                 "3306",
	"DB_USER":                 "",
	"DB_PASSWORD":             "",
	"DB_NAME":                 "",
	"JWT_SECRET":              "",
	"CALLBACK_SECRET":         "",
	"ADMIN_EMAILS":            "",
	"LOG_LEVEL":               "info",
	"LOG_FILE":                "",
	"SMTP_HOST":               "smtp.gmail.com",
	"SMTP_PORT":               465,
	"SMTP_USERNAME":           "",
	"SMTP_PASSWORD":           "",
	"FRONTEND_URL":            "http://localhost:5173",
	"STORAGE_BACKEND":         "local",
	"LOCAL_STORAGE_PATH":      "./uploads",
	"PUBLIC_BASE_URL":         "http://localhost:8080/uploads",
	"S3_REGION":               "ap-south-1",
	"S3_BUCKET":               "",
	"GCS_BUCKET_NAME":         "",
	"GCS_CREDENTIALS_FILE":    "",
	"TRANSACTION_FEE_PERCENT": 0.0,
	"NOTIFY_WORKERS":          8,
	"EMAIL_RETRY_INTERVAL":    10 * time.Minute,
	"DRAFT_AUTOSAVE_INTERVAL": 30 * time.Second,
	"DRAFT_SESSION_TTL":       2 * time.Hour,
}

// Load 读取 .env 与环境变量并返回校验后的配置
func Load() (*Config, error) {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 如果是调试模式，打印更详细的路由信息
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Printf("配置加载完成。存储驱动：%s，文件存储：%s", cfg.DBDriver, cfg.StorageBackend)
	return cfg, nil
}

// Validate 检查必填项与取值范围
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("错误：数据库配置不完整")
		}
	case "memory":
	default:
		return fmt.Errorf("错误：不支持的数据库驱动 %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("错误：JWT密钥未设置")
	}
	if c.CallbackSecret == "" {
		return fmt.Errorf("错误：支付回调密钥未设置")
	}
	switch c.StorageBackend {
	case "local", "s3", "gcs":
	default:
		return fmt.Errorf("错误：不支持的文件存储 %q", c.StorageBackend)
	}
	if c.TransactionFeePercent < 0 || c.TransactionFeePercent >= 100 {
		return fmt.Errorf("错误：手续费比例必须在 [0, 100) 之间")
	}
	if c.NotifyWorkers <= 0 {
		return fmt.Errorf("错误：通知协程数必须大于0")
	}
	if c.EmailRetryInterval <= 0 || c.DraftAutosaveInterval <= 0 || c.DraftSessionTTL <= 0 {
		return fmt.Errorf("错误：邮件补发间隔、草稿自动保存间隔和草稿会话有效期必须大于0")
	}
	return nil
}

// DSN 返回 MySQL 连接字符串
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// AdminEmailList 返回注册时自动授予管理员角色的邮箱
func (c *Config) AdminEmailList() []string {
	var emails []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

// SMTPEnabled 表示是否配置了真实的邮件发送
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}
