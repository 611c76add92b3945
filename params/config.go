package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// AbabParams is the fixed committee and timing configuration the engine
// needs at construction time: the validator set, the gas-limit policy
// bound, the per-block reward, and the round timeout.
type AbabParams struct {
	Validators           []common.Address
	GasLimitBoundDivisor uint64
	BlockReward          uint64
	Timeout              time.Duration
}

type Node struct {
	ListenAddr string
	Bootstrap  []string
	DataDir    string
	RPCAddr    string
}

type Config struct {
	Abab AbabParams
	Node Node
}

func Default() Config {
	return Config{
		Abab: AbabParams{
			GasLimitBoundDivisor: 1024,
			BlockReward:          0,
			Timeout:              3 * time.Second,
		},
		Node: Node{
			ListenAddr: "/ip4/0.0.0.0/tcp/26656",
			DataDir:    "./data",
			RPCAddr:    ":26657",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if divisor := os.Getenv("CONSENSUS_GAS_LIMIT_BOUND_DIVISOR"); divisor != "" {
		if n, err := strconv.ParseUint(divisor, 10, 64); err == nil {
			cfg.Abab.GasLimitBoundDivisor = n
		}
	}
	if reward := os.Getenv("CONSENSUS_BLOCK_REWARD"); reward != "" {
		if n, err := strconv.ParseUint(reward, 10, 64); err == nil {
			cfg.Abab.BlockReward = n
		}
	}
	if timeout := os.Getenv("CONSENSUS_TIMEOUT_MS"); timeout != "" {
		if ms, err := strconv.Atoi(timeout); err == nil {
			cfg.Abab.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if vals := os.Getenv("CONSENSUS_VALIDATORS"); vals != "" {
		cfg.Abab.Validators = parseValidators(vals)
	}

	cfg.Node.ListenAddr = getEnv("NODE_LISTEN_ADDR", cfg.Node.ListenAddr)
	cfg.Node.DataDir = getEnv("NODE_DATA_DIR", cfg.Node.DataDir)
	cfg.Node.RPCAddr = getEnv("NODE_RPC_ADDR", cfg.Node.RPCAddr)
	if bootstrap := os.Getenv("NODE_BOOTSTRAP"); bootstrap != "" {
		cfg.Node.Bootstrap = strings.Split(bootstrap, ",")
	}

	return cfg
}

func parseValidators(csv string) []common.Address {
	parts := strings.Split(csv, ",")
	out := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, common.HexToAddress(p))
	}
	return out
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
