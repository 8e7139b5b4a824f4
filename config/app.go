package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/store"
	"github.com/rushteam/scenekit/synth"
	"github.com/rushteam/scenekit/train"
)

// App 是三个命令共享的应用配置，对应 configs/scenekit.yaml。
type App struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database store.DBConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Model    ModelConfig    `mapstructure:"model"`
	Selector SelectorConfig `mapstructure:"selector"`
	Synth    SynthConfig    `mapstructure:"synth"`
	Train    train.Options  `mapstructure:"train"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"oneof=dev development prod production"`
	Level string `mapstructure:"level"`
}

// CacheConfig 选择结果缓存
type CacheConfig struct {
	Backend         string            `mapstructure:"backend" validate:"oneof=memory redis none"`
	MaxEntries      int               `mapstructure:"max_entries" validate:"gte=0"`
	CleanupInterval time.Duration     `mapstructure:"cleanup_interval"`
	Redis           store.RedisConfig `mapstructure:"redis"`
}

// ModelConfig 产物目录，包含 model.json / encoders.json / features.json
type ModelConfig struct {
	Dir string `mapstructure:"dir"`
}

// SelectorConfig 序列选择配置，实现 core.SelectorConfig。
type SelectorConfig struct {
	TopN       int    `mapstructure:"top_n" validate:"gte=1"`
	DeviceType string `mapstructure:"device_type" validate:"oneof=mobile desktop tv"`
	CacheTTL   int    `mapstructure:"cache_ttl" validate:"gte=0"` // 秒，0 表示不缓存

	// EligibilityRules CEL 规则，命中的版本被过滤
	EligibilityRules []string `mapstructure:"eligibility_rules"`
	// SymmetricPacingDiff 推理时使用与训练一致的 |用户偏好 - 节奏|
	SymmetricPacingDiff bool `mapstructure:"symmetric_pacing_diff"`
	// MonitorSamples 特征监控每列保留的样本数，0 表示关闭 /debug/features
	MonitorSamples int `mapstructure:"monitor_samples" validate:"gte=0"`

	// 自定义 Pipeline 配置文件（YAML/JSON），为空时使用内置配置
	SequencePipeline     string `mapstructure:"sequence_pipeline"`
	AlternativesPipeline string `mapstructure:"alternatives_pipeline"`
}

var _ core.SelectorConfig = (*SelectorConfig)(nil)

func (c *SelectorConfig) DefaultTopN() int          { return c.TopN }
func (c *SelectorConfig) DefaultDeviceType() string { return c.DeviceType }
func (c *SelectorConfig) CacheTTLSeconds() int      { return c.CacheTTL }

// SynthConfig 合成数据配置；Reference 为 RFC3339 时间，为空时取当前时间。
type SynthConfig struct {
	synth.Config `mapstructure:",squash"`
	ReferenceAt  string `mapstructure:"reference"`
	Reset        bool   `mapstructure:"reset"`
}

// ResolvedReference 解析参考时间
func (c SynthConfig) ResolvedReference(now time.Time) (time.Time, error) {
	if c.ReferenceAt == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.ReferenceAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("synth.reference: %w", err)
	}
	return t, nil
}

// EnvPrefix 环境变量前缀，例如 SCENEKIT_SERVER_ADDR 覆盖 server.addr
const EnvPrefix = "SCENEKIT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.dsn", "scenekit.db")
	v.SetDefault("database.max_open", 4)
	v.SetDefault("database.max_idle", 2)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("database.log_sql", false)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "scenekit:")

	v.SetDefault("model.dir", "artifacts")

	def := core.DefaultSelectorConfig{}
	v.SetDefault("selector.top_n", def.DefaultTopN())
	v.SetDefault("selector.device_type", def.DefaultDeviceType())
	v.SetDefault("selector.cache_ttl", def.CacheTTLSeconds())
	v.SetDefault("selector.eligibility_rules", []string{})
	v.SetDefault("selector.symmetric_pacing_diff", false)
	v.SetDefault("selector.monitor_samples", 1000)
	v.SetDefault("selector.sequence_pipeline", "")
	v.SetDefault("selector.alternatives_pipeline", "")

	sc := synth.DefaultConfig()
	v.SetDefault("synth.users", sc.Users)
	v.SetDefault("synth.movies", sc.Movies)
	v.SetDefault("synth.scenes_per_movie", sc.ScenesPerMovie)
	v.SetDefault("synth.variants_per_scene", sc.VariantsPerScene)
	v.SetDefault("synth.sessions_per_user", sc.SessionsPerUser)
	v.SetDefault("synth.seed", sc.Seed)
	v.SetDefault("synth.workers", sc.Workers)
	v.SetDefault("synth.reference", "")
	v.SetDefault("synth.reset", true)

	tc := train.DefaultOptions()
	v.SetDefault("train.test_ratio", tc.TestRatio)
	v.SetDefault("train.seed", tc.Seed)
	v.SetDefault("train.folds", tc.Folds)
	v.SetDefault("train.workers", tc.Workers)
	v.SetDefault("train.model.epochs", tc.Model.Epochs)
	v.SetDefault("train.model.learning_rate", tc.Model.LearningRate)
	v.SetDefault("train.model.l2", tc.Model.L2)
	v.SetDefault("train.model.positive_weight", tc.Model.PositiveWeight)
	v.SetDefault("train.model.version", "")
}

// Load 加载配置：默认值 < 配置文件 < 环境变量。
// path 为空时在 ./configs 与当前目录查找 scenekit.yaml，找不到文件时只使用默认值与环境变量。
func Load(path string) (*App, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scenekit")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg App
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值
func (a *App) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
