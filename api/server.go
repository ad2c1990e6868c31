package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"matchbook/domain/book"
	"matchbook/engine"
	"matchbook/infra/metrics"
	"matchbook/service"
)

// Server exposes the matching service over HTTP and streams trades over a
// websocket. It owns no matching state; everything is delegated to the
// service layer.
type Server struct {
	log  *zap.Logger
	svc  *service.Service
	hub  *Hub
	met  *metrics.Metrics
	http *http.Server
}

func NewServer(log *zap.Logger, svc *service.Service, met *metrics.Metrics, addr string) *Server {
	s := &Server{
		log: log,
		svc: svc,
		hub: NewHub(log),
		met: met,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws/trades", s.hub.handleWebSocket)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/book/{symbol}", s.handleBook).Methods(http.MethodGet)
	v1.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)

	if met != nil {
		r.Handle("/metrics", met.Handler()).Methods(http.MethodGet)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Trades reaching the hub are fanned out to websocket subscribers.
	svc.AddTradeSink(func(t book.Trade) {
		msg, err := json.Marshal(s.tradeView(t))
		if err != nil {
			return
		}
		s.hub.Broadcast(msg)
	})

	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.svc.Engine().Verify(); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var side book.Side
	switch strings.ToLower(req.Side) {
	case "buy":
		side = book.Buy
	case "sell":
		side = book.Sell
	default:
		s.writeError(w, http.StatusBadRequest, "side must be \"buy\" or \"sell\"")
		return
	}

	res, err := s.svc.Submit(side, req.Symbol, req.Qty, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidSymbol):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, book.ErrFaulted):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	resp := SubmitOrderResponse{
		OrderID: res.OrderID,
		Filled:  res.Filled,
		Resting: res.Resting,
		Trades:  make([]TradeView, 0, len(res.Trades)),
	}
	for _, t := range res.Trades {
		resp.Trades = append(resp.Trades, s.tradeView(t))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	bids, asks, err := s.svc.Engine().Depth(symbol, maxDepthLevels(r))
	if err != nil {
		if errors.Is(err, engine.ErrInvalidSymbol) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, BookResponse{Symbol: symbol, Bids: bids, Asks: asks})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	trades := s.svc.RecentTrades(limit)
	resp := TradesResponse{Trades: make([]TradeView, 0, len(trades))}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, s.tradeView(t))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func maxDepthLevels(r *http.Request) int {
	if v := r.URL.Query().Get("levels"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return 20
}

func (s *Server) tradeView(t book.Trade) TradeView {
	return TradeView{
		Seq:     t.Seq,
		TakerID: t.TakerID,
		MakerID: t.MakerID,
		Symbol:  s.svc.Engine().Registry().Symbol(t.Slot),
		Price:   t.Price,
		Qty:     t.Qty,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}
