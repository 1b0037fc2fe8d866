package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config
// file.
type Config struct {
	// Chains maps a chain id to its RPC endpoint.
	Chains map[string]string

	CustodianURL     string
	CustodianKey     string
	CustodianSecret  string
	CustodianTimeout time.Duration

	// WalletID pins a specific custody wallet; empty means the first
	// wallet with an address on the target chain is used.
	WalletID string

	LedgerPath   string
	PostgresDSN  string
	ArtifactPath string
	LogLevel     string
}

// defaultChains mirrors the custody provider's chain id conventions.
var defaultChains = map[string]string{
	"ETH":     "https://ethereum-rpc.publicnode.com",
	"SETH":    "https://ethereum-sepolia-rpc.publicnode.com",
	"MATIC":   "https://polygon-rpc.com",
	"BSC_BNB": "https://bsc-dataseed.binance.org",
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("ledger", "./data/ledger.json")
	v.SetDefault("artifact", "./artifacts/SimpleERC1400.json")
	v.SetDefault("custodian-timeout", 30*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Chains:           chainMap(v),
		CustodianURL:     v.GetString("custodian-url"),
		CustodianKey:     v.GetString("custodian-key"),
		CustodianSecret:  v.GetString("custodian-secret"),
		CustodianTimeout: v.GetDuration("custodian-timeout"),
		WalletID:         v.GetString("wallet"),
		LedgerPath:       v.GetString("ledger"),
		PostgresDSN:      v.GetString("pg-dsn"),
		ArtifactPath:     v.GetString("artifact"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// chainMap merges configured chain endpoints over the defaults.
func chainMap(v *viper.Viper) map[string]string {
	chains := make(map[string]string, len(defaultChains))
	for id, url := range defaultChains {
		chains[id] = url
	}
	for id, url := range v.GetStringMapString("chains") {
		id = strings.ToUpper(strings.TrimSpace(id))
		url = strings.TrimSpace(url)
		if id == "" || url == "" {
			continue
		}
		chains[id] = url
	}
	return chains
}
