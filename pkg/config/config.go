package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
	WalletConnect WalletConnectConfig `mapstructure:"walletconnect"`
	Operator      OperatorConfig      `mapstructure:"operator"`
	Deploy        DeployConfig        `mapstructure:"deploy"`
	Cron          CronConfig          `mapstructure:"cron"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" / "kafka" / "" (不发事件)
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LedgerConfig 账本网络相关配置
// 未显式配置 rpc_url / mirror_url 时按 network 取默认值
type LedgerConfig struct {
	Network         string        `mapstructure:"network"` // testnet / mainnet
	RpcUrl          string        `mapstructure:"rpc_url"`
	MirrorUrl       string        `mapstructure:"mirror_url"`
	ReceiptInterval time.Duration `mapstructure:"receipt_interval"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
	DeploymentFile  string        `mapstructure:"deployment_file"`
	AbiDir          string        `mapstructure:"abi_dir"`
}

type WalletConnectConfig struct {
	ProjectID       string        `mapstructure:"project_id"`
	RelayUrl        string        `mapstructure:"relay_url"`
	ApprovalTimeout time.Duration `mapstructure:"approval_timeout"`
	SignTimeout     time.Duration `mapstructure:"sign_timeout"`
}

// OperatorConfig 部署脚本使用的运营账户
// Key / Mnemonic / KeystorePath 三选一
type OperatorConfig struct {
	ID           string `mapstructure:"id"`
	Key          string `mapstructure:"key"`
	Mnemonic     string `mapstructure:"mnemonic"`
	KeystorePath string `mapstructure:"keystore_path"`
	Password     string `mapstructure:"password"` // 通常通过环境变量 NODE_OPERATOR_PASSWORD 传入
}

type DeployConfig struct {
	ArtifactDir    string              `mapstructure:"artifact_dir"`
	MaxAttempts    int                 `mapstructure:"max_attempts"`
	DefaultGas     uint64              `mapstructure:"default_gas"`
	BusyBackoff    time.Duration       `mapstructure:"busy_backoff"`
	ShortBackoff   time.Duration       `mapstructure:"short_backoff"`
	AttemptTimeout time.Duration       `mapstructure:"attempt_timeout"` // 单次尝试 (提交 + 等待回执) 的上限
	GasLevels      map[string][]uint64 `mapstructure:"gas_levels"`      // key: 合约名 (小写)
}

// CronConfig 定时任务 (robfig/cron 表达式，空字符串表示不启用)
type CronConfig struct {
	ContractReload string `mapstructure:"contract_reload"`
	SessionSweep   string `mapstructure:"session_sweep"`
}

var Global Config

// 各网络的默认端点
var networkDefaults = map[string]struct {
	rpc    string
	mirror string
}{
	"testnet": {rpc: "https://testnet.hashio.io/api", mirror: "https://testnet.mirrornode.hedera.com"},
	"mainnet": {rpc: "https://mainnet.hashio.io/api", mirror: "https://mainnet-public.mirrornode.hedera.com"},
}

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath(".")      // optionally look for config in the working directory
	viper.AddConfigPath("./config")

	// 环境变量设置: NODE_LEDGER_NETWORK -> ledger.network
	viper.SetEnvPrefix("node")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	applyNetworkDefaults(&Global.Ledger)

	log.Printf("Configuration loaded successfully. Env: %s, Network: %s", Global.App.Env, Global.Ledger.Network)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "node_events_tx")

	viper.SetDefault("ledger.network", "testnet")
	viper.SetDefault("ledger.rpc_url", "")
	viper.SetDefault("ledger.mirror_url", "")
	viper.SetDefault("ledger.receipt_interval", 2*time.Second)
	viper.SetDefault("ledger.receipt_timeout", 2*time.Minute)
	viper.SetDefault("ledger.deployment_file", "deployment-info.json")
	viper.SetDefault("ledger.abi_dir", "abi")

	viper.SetDefault("walletconnect.project_id", "")
	viper.SetDefault("walletconnect.relay_url", "wss://relay.walletconnect.com")
	viper.SetDefault("walletconnect.approval_timeout", 120*time.Second)
	viper.SetDefault("walletconnect.sign_timeout", 120*time.Second)

	viper.SetDefault("operator.id", "")
	viper.SetDefault("operator.key", "")
	viper.SetDefault("operator.mnemonic", "")
	viper.SetDefault("operator.keystore_path", "")
	viper.SetDefault("operator.password", "")

	viper.SetDefault("deploy.artifact_dir", "artifacts")
	viper.SetDefault("deploy.max_attempts", 5)
	viper.SetDefault("deploy.default_gas", 3000000)
	viper.SetDefault("deploy.busy_backoff", 30*time.Second)
	viper.SetDefault("deploy.short_backoff", 2*time.Second)
	viper.SetDefault("deploy.attempt_timeout", 3*time.Minute)

	viper.SetDefault("cron.contract_reload", "@every 30s")
	viper.SetDefault("cron.session_sweep", "@every 1m")
}

// applyNetworkDefaults 填充未配置的网络端点
func applyNetworkDefaults(l *LedgerConfig) {
	l.Network = strings.ToLower(strings.TrimSpace(l.Network))
	d, ok := networkDefaults[l.Network]
	if !ok {
		log.Printf("Warning: unknown network %q, falling back to testnet", l.Network)
		l.Network = "testnet"
		d = networkDefaults["testnet"]
	}
	if l.RpcUrl == "" {
		l.RpcUrl = d.rpc
	}
	if l.MirrorUrl == "" {
		l.MirrorUrl = d.mirror
	}
}
