// Package api serves quotes over HTTP.
package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orderRouter/internal/chain"
	"orderRouter/internal/currency"
	"orderRouter/internal/model"
	"orderRouter/internal/storage"
)

// Router produces swap routes.
type Router interface {
	ChainID() chain.ChainID
	Route(ctx context.Context, amount currency.CurrencyAmount, quoteCurrency currency.Currency, tradeType model.TradeType, swapConfig *model.SwapConfig, cfg model.RoutingConfig) (*model.SwapRoute, error)
}

// CurrencyResolver turns a query parameter into a currency.
type CurrencyResolver interface {
	GetCurrency(ctx context.Context, s string) (currency.Currency, error)
}

// QuoteHistory reads persisted quotes for a pair, newest first.
type QuoteHistory interface {
	RecentQuotes(ctx context.Context, chainID uint64, tokenIn, tokenOut string, limit int) ([]model.QuoteRecord, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Options wires a Server. Sink, History, Metrics and SwapConfig may be nil.
type Options struct {
	Router     Router
	Currencies CurrencyResolver
	Routing    model.RoutingConfig
	// SwapConfig builds calldata options per request; nil returns quotes without calldata.
	SwapConfig func(now time.Time) (*model.SwapConfig, error)
	Sink       storage.QuoteSink
	History    QuoteHistory
	Metrics    http.Handler
	Logger     *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(opts Options) (*Server, error) {
	if opts.Router == nil || opts.Currencies == nil {
		return nil, errors.New("api: router and currency resolver are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: logger, now: time.Now}, nil
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "chain_id": uint64(s.opts.Router.ChainID())})
	})
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	r.GET("/quote", s.getQuote)
	if s.opts.History != nil {
		r.GET("/quotes/recent", s.getRecentQuotes)
	}
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type quoteRequest struct {
	TokenIn  string `form:"tokenIn" binding:"required"`
	TokenOut string `form:"tokenOut" binding:"required"`
	Amount   string `form:"amount" binding:"required"`
	Type     string `form:"type"`
}

func (s *Server) getQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	tradeType, err := parseTradeType(req.Type)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	raw, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || raw.Sign() <= 0 {
		badRequest(c, "invalid amount: must be a positive integer")
		return
	}

	ctx := c.Request.Context()
	tokenIn, err := s.opts.Currencies.GetCurrency(ctx, req.TokenIn)
	if err != nil {
		badRequest(c, "invalid tokenIn: "+err.Error())
		return
	}
	tokenOut, err := s.opts.Currencies.GetCurrency(ctx, req.TokenOut)
	if err != nil {
		badRequest(c, "invalid tokenOut: "+err.Error())
		return
	}

	amountCurrency, quoteCurrency := tokenIn, tokenOut
	if tradeType == model.ExactOutput {
		amountCurrency, quoteCurrency = tokenOut, tokenIn
	}

	now := s.now()
	var swapConfig *model.SwapConfig
	if s.opts.SwapConfig != nil {
		if swapConfig, err = s.opts.SwapConfig(now); err != nil {
			internalError(c, err.Error())
			return
		}
	}

	route, err := s.opts.Router.Route(ctx, currency.FromRawAmount(amountCurrency, raw), quoteCurrency, tradeType, swapConfig, s.opts.Routing)
	if err != nil {
		s.logger.Error("route failed", zap.Error(err))
		internalError(c, err.Error())
		return
	}
	if route == nil {
		c.JSON(http.StatusNotFound, response{Error: "no route found"})
		return
	}

	record := model.NewQuoteRecord(uint64(s.opts.Router.ChainID()), tradeType, route, now)
	if s.opts.Sink != nil {
		if err := s.opts.Sink.PutQuotes(ctx, []model.QuoteRecord{record}); err != nil {
			s.logger.Warn("persist quote failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, response{Success: true, Data: record})
}

type historyRequest struct {
	TokenIn  string `form:"tokenIn" binding:"required"`
	TokenOut string `form:"tokenOut" binding:"required"`
	Limit    string `form:"limit"`
}

func (s *Server) getRecentQuotes(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	limit := defaultHistoryLimit
	if req.Limit != "" {
		n, err := strconv.Atoi(req.Limit)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			badRequest(c, "invalid limit: must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	tokenIn, err := s.opts.Currencies.GetCurrency(ctx, req.TokenIn)
	if err != nil {
		badRequest(c, "invalid tokenIn: "+err.Error())
		return
	}
	tokenOut, err := s.opts.Currencies.GetCurrency(ctx, req.TokenOut)
	if err != nil {
		badRequest(c, "invalid tokenOut: "+err.Error())
		return
	}

	// Records store the currencies in their String form.
	quotes, err := s.opts.History.RecentQuotes(ctx, uint64(s.opts.Router.ChainID()), tokenIn.String(), tokenOut.String(), limit)
	if err != nil {
		s.logger.Error("load quote history failed", zap.Error(err))
		internalError(c, err.Error())
		return
	}
	if quotes == nil {
		quotes = []model.QuoteRecord{}
	}
	c.JSON(http.StatusOK, response{Success: true, Data: quotes})
}

func parseTradeType(s string) (model.TradeType, error) {
	switch strings.ToLower(s) {
	case "", "exactin":
		return model.ExactInput, nil
	case "exactout":
		return model.ExactOutput, nil
	}
	return 0, errors.New("invalid type: must be exactIn or exactOut")
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response{Error: msg})
}

func internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, response{Error: msg})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
