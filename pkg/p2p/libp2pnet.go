// file: pkg/p2p/libp2pnet.go
package p2p

import (
	"context"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// topic is the single gossip channel every validator publishes and
// subscribes to. Unlike the HotStuff transport this replaces, Abab has no
// separate propose/prepare/vote channels: every ViewVote kind travels as
// one consensus.Message over the same topic, and the engine itself decides
// what to do with each one.
const topic = "abab-consensus"

// Transport is a libp2p gossip-based implementation of consensus.Client's
// BroadcastConsensusMessage half. Inbound messages are handed to the
// engine via HandleMessage, supplied at construction time.
type Transport struct {
	h   host.Host
	ps  *pubsub.PubSub
	t   *pubsub.Topic
	sub *pubsub.Subscription
	log *zap.SugaredLogger
}

// Config is the libp2p wiring needed to join the consensus gossip mesh.
type Config struct {
	ListenAddr   string
	Bootstrap    []string
	Logger       *zap.SugaredLogger
	HandleMessage func(data []byte) error
}

// New joins the gossip mesh and starts delivering inbound messages to
// cfg.HandleMessage (normally consensus.Engine.HandleMessage).
func New(ctx context.Context, cfg Config) (*Transport, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	tr := &Transport{h: h, ps: ps, log: cfg.Logger}

	for _, bs := range cfg.Bootstrap {
		if err := connectMultiaddr(ctx, h, bs); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("bootstrap_connect_failed", "addr", bs, "err", err)
		}
	}

	tr.t, err = ps.Join(topic)
	if err != nil {
		return nil, err
	}
	tr.sub, err = tr.t.Subscribe()
	if err != nil {
		return nil, err
	}

	go tr.readLoop(ctx, cfg.HandleMessage)

	if cfg.Logger != nil {
		cfg.Logger.Infow("libp2p_ready", "peer", h.ID().String(), "listen", cfg.ListenAddr)
	}
	return tr, nil
}

func connectMultiaddr(ctx context.Context, h host.Host, addr string) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	return h.Connect(ctx, *info)
}

// BroadcastConsensusMessage publishes an encoded consensus.Message to the
// gossip topic, implementing consensus.Client.
func (tr *Transport) BroadcastConsensusMessage(data []byte) {
	if err := tr.t.Publish(context.Background(), data); err != nil && tr.log != nil {
		tr.log.Warnw("broadcast_failed", "err", err)
	}
}

func (tr *Transport) readLoop(ctx context.Context, handle func([]byte) error) {
	for {
		msg, err := tr.sub.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == tr.h.ID() {
			continue
		}
		if handle == nil {
			continue
		}
		if err := handle(msg.Data); err != nil && tr.log != nil {
			tr.log.Debugw("handle_message_failed", "err", err)
		}
	}
}

// Host exposes the underlying libp2p host, mainly for logging/diagnostics.
func (tr *Transport) Host() host.Host { return tr.h }
