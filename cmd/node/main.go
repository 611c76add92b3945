package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/abab/abab/params"
	"github.com/abab/abab/pkg/consensus"
	"github.com/abab/abab/pkg/crypto"
	"github.com/abab/abab/pkg/metrics"
	"github.com/abab/abab/pkg/p2p"
	"github.com/abab/abab/pkg/rpc"
	"github.com/abab/abab/pkg/storage"
	"github.com/abab/abab/pkg/util"
)

// host wires the engine's Client callbacks to durable storage, the p2p
// gossip transport, and the RPC explorer: the minimal external
// collaborator the engine needs in order to seal blocks and gossip
// consensus messages.
type host struct {
	mu      sync.Mutex
	engine  *consensus.Engine
	archive storage.SealArchive
	tr      *p2p.Transport
	rpcSrv  *rpc.Server
	log     *zap.SugaredLogger
	self    common.Address
	gasFloor, gasCeil uint64
}

func (h *host) BroadcastConsensusMessage(data []byte) {
	h.tr.BroadcastConsensusMessage(data)
}

// UpdateSealing re-invokes GenerateSeal for the header under construction
// at the engine's current height. The first invocation after a (height,
// view) reset yields the proposal seal; once this node's own proposal
// reaches quorum, a later invocation (triggered again by the engine)
// yields the commit seal.
func (h *host) UpdateSealing() {
	h.mu.Lock()
	defer h.mu.Unlock()

	height := h.engine.Height()
	parent, ok := h.archive.GetHeader(height - 1)
	if !ok {
		parent = &consensus.Header{Number: height - 1, GasLimit: h.gasFloor}
	}

	header := &consensus.Header{
		ParentHash: consensus.BareHash(parent),
		Number:     height,
		Author:     h.self,
		Time:       uint64(time.Now().Unix()),
	}
	h.engine.PopulateFromParent(header, parent, h.gasFloor, h.gasCeil)

	seal, err := h.engine.GenerateSeal(header)
	if err != nil {
		return
	}
	fields, err := seal.EncodeFields()
	if err != nil {
		h.log.Warnw("encode_seal_failed", "err", err)
		return
	}
	header.Seal = fields

	if err := h.archive.SaveHeader(header); err != nil {
		h.log.Warnw("save_header_failed", "height", height, "err", err)
		return
	}

	if len(seal.VoteSignatures) > 0 {
		h.archive.SetCommittedHeight(height)
		h.log.Infow("committed", "height", height)
		if h.rpcSrv != nil {
			h.rpcSrv.PushCommit(height)
		}
	}
}

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	privHex := os.Getenv("VALIDATOR_PRIVATE_KEY")
	if privHex == "" {
		sugar.Fatal("VALIDATOR_PRIVATE_KEY is required")
	}
	keySigner, err := crypto.FromPrivateKeyHex(privHex)
	if err != nil {
		sugar.Fatalw("load_key_failed", "err", err)
	}

	if len(cfg.Abab.Validators) == 0 {
		sugar.Fatal("CONSENSUS_VALIDATORS is required")
	}
	validators := consensus.NewStaticValidatorSet(cfg.Abab.Validators)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	signer := consensus.NewKeySigner()
	signer.Set(keySigner)

	engine := consensus.NewEngine(consensus.EngineConfig{
		Validators:           validators,
		Signer:               signer,
		Timeout:              cfg.Abab.Timeout,
		GasLimitBoundDivisor: cfg.Abab.GasLimitBoundDivisor,
		BlockReward:          cfg.Abab.BlockReward,
		Logger:               sugar,
		Metrics:              collector,
	})

	if err := os.MkdirAll(cfg.Node.DataDir, 0o755); err != nil {
		sugar.Fatalw("data_dir_failed", "err", err)
	}
	archive, err := storage.NewPebbleStore(cfg.Node.DataDir)
	if err != nil {
		sugar.Fatalw("pebble_open_failed", "err", err)
	}
	defer archive.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &host{
		engine:   engine,
		archive:  archive,
		log:      sugar,
		self:     signer.Address(),
		gasFloor: 8_000_000,
		gasCeil:  8_000_000,
	}

	tr, err := p2p.New(ctx, p2p.Config{
		ListenAddr:    cfg.Node.ListenAddr,
		Bootstrap:     cfg.Node.Bootstrap,
		Logger:        sugar,
		HandleMessage: engine.HandleMessage,
	})
	if err != nil {
		sugar.Fatalw("p2p_init_failed", "err", err)
	}
	h.tr = tr

	rpcSrv := rpc.NewServer(engine, validators, sugar)
	h.rpcSrv = rpcSrv
	go func() {
		if err := rpcSrv.Start(cfg.Node.RPCAddr); err != nil {
			sugar.Errorw("rpc_failed", "err", err)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(":9100", mux); err != nil {
			sugar.Errorw("metrics_server_failed", "err", err)
		}
	}()

	engine.RegisterClient(h)

	sugar.Infow("node_started",
		"address", signer.Address().Hex(),
		"validators", validators.Count(),
		"listen", cfg.Node.ListenAddr,
		"rpc_addr", cfg.Node.RPCAddr)

	<-ctx.Done()
	engine.Stop()
	sugar.Info("node_stopped")
}
