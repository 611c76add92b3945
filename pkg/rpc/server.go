package rpc

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/abab/abab/pkg/consensus"
)

// lister is satisfied by consensus.StaticValidatorSet; used only for the
// /validators explorer endpoint, which has no place in the ValidatorSet
// interface the engine itself depends on.
type lister interface {
	List() []common.Address
}

// Server is the consensus explorer: a small HTTP+WebSocket surface for
// observing engine state, read-only by design — height, view, validator
// roster, and live commit/view-change events, with no endpoint that can
// influence the engine's decisions.
type Server struct {
	engine     *consensus.Engine
	validators consensus.ValidatorSet
	router     *mux.Router
	hub        *Hub
	log        *zap.SugaredLogger
}

func NewServer(engine *consensus.Engine, validators consensus.ValidatorSet, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine:     engine,
		validators: validators,
		router:     mux.NewRouter(),
		hub:        NewHub(log),
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/validators", s.handleValidators).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub loop and serves HTTP, blocking until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	if s.log != nil {
		s.log.Infow("rpc_listening", "addr", addr)
	}
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, ChainStatus{
		Height:     uint64(s.engine.Height()),
		View:       uint64(s.engine.View()),
		Validators: s.validators.Count(),
	})
}

func (s *Server) handleValidators(w http.ResponseWriter, r *http.Request) {
	l, ok := s.validators.(lister)
	if !ok {
		respondJSON(w, []ValidatorInfo{})
		return
	}
	addrs := l.List()
	out := make([]ValidatorInfo, len(addrs))
	for i, a := range addrs {
		out[i] = ValidatorInfo{Address: a.Hex(), Index: i}
	}
	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// PushCommit broadcasts a commit event to the "commits" channel.
func (s *Server) PushCommit(height consensus.Height) {
	s.hub.BroadcastToChannel("commits", CommitEvent{Type: "commit", Height: uint64(height)})
}

// PushViewChange broadcasts a view-change event to the "view_changes" channel.
func (s *Server) PushViewChange(height consensus.Height, view consensus.View) {
	s.hub.BroadcastToChannel("view_changes", ViewChangeEvent{Type: "view_change", Height: uint64(height), View: uint64(view)})
}
