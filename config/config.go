package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fyerfyer/doc-preprocessor/pkg/logger"
)

// Config 应用程序配置结构体
type Config struct {
	Document DocumentConfig `mapstructure:"document"`
	Render   RenderConfig   `mapstructure:"render"`
	Convert  ConvertConfig  `mapstructure:"convert"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      logger.Config  `mapstructure:"log"`
}

// DocumentConfig 文档处理配置
type DocumentConfig struct {
	ChunkSize      int    `mapstructure:"chunk_size"`      // 分块大小
	ChunkOverlap   int    `mapstructure:"chunk_overlap"`   // 分块重叠大小，-1 表示不重叠
	WorkDir        string `mapstructure:"work_dir"`        // 临时目录的父目录，空则使用系统临时目录
	KeepRendered   bool   `mapstructure:"keep_rendered"`   // 是否保留渲染生成的 PDF
	RenderMarkdown bool   `mapstructure:"render_markdown"` // .md 文件是否按 Markdown 渲染
	OCRLanguage    string `mapstructure:"ocr_language"`    // OCR 语言，多个用 + 连接
}

// RenderConfig 标记渲染配置
type RenderConfig struct {
	Engine     string        `mapstructure:"engine"`      // 渲染引擎：chrome 或 text
	ChromePath string        `mapstructure:"chrome_path"` // Chrome 可执行文件路径
	FontPath   string        `mapstructure:"font_path"`   // text 引擎使用的 TrueType 字体
	Timeout    time.Duration `mapstructure:"timeout"`     // 单次渲染超时
}

// ConvertConfig 外部转换工具配置
type ConvertConfig struct {
	HWP5HTML string        `mapstructure:"hwp5html"` // hwp5html 可执行文件
	Soffice  string        `mapstructure:"soffice"`  // LibreOffice 可执行文件
	Timeout  time.Duration `mapstructure:"timeout"`  // 单次转换超时
}

// StorageConfig 页面图片存储配置
type StorageConfig struct {
	Enable    bool   `mapstructure:"enable"`   // 是否上传页面图片
	Type      string `mapstructure:"type"`     // 存储类型：local 或 minio
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // MinIO桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// OCRLanguages 拆分 OCR 语言列表
func (c DocumentConfig) OCRLanguages() []string {
	var langs []string
	for _, l := range strings.Split(c.OCRLanguage, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

// Load 从 .env、配置文件和环境变量加载配置
// 配置文件不存在时使用默认值
func Load(configPath string) (*Config, error) {
	var config Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env: %v", err)
	}

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	setDefaults(v)

	if _, err := os.Stat(configPath); err != nil {
		log.Printf("Warning: Config file not found at %s, using defaults", configPath)
	} else {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 支持环境变量覆盖，例如 DOCUMENT_CHUNK_SIZE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return processEnvironmentVariables(&config), nil
}

// processEnvironmentVariables 展开 ${VAR} 形式的密钥配置
func processEnvironmentVariables(cfg *Config) *Config {
	cfg.Storage.AccessKey = expandEnv(cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = expandEnv(cfg.Storage.SecretKey)
	return cfg
}

func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		if envVal := os.Getenv(value[2 : len(value)-1]); envVal != "" {
			return envVal
		}
	}
	return value
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 文档处理默认配置
	v.SetDefault("document.chunk_size", 512)
	v.SetDefault("document.chunk_overlap", 100)
	v.SetDefault("document.work_dir", "")
	v.SetDefault("document.keep_rendered", true)
	v.SetDefault("document.render_markdown", false)
	v.SetDefault("document.ocr_language", "kor+eng")

	// 渲染默认配置
	v.SetDefault("render.engine", "chrome")
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.font_path", "")
	v.SetDefault("render.timeout", "10m")

	// 转换工具默认配置
	v.SetDefault("convert.hwp5html", "hwp5html")
	v.SetDefault("convert.soffice", "soffice")
	v.SetDefault("convert.timeout", "10m")

	// 存储默认配置
	v.SetDefault("storage.enable", false)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./media")
	v.SetDefault("storage.bucket", "docprep")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}
