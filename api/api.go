// Package api implements the HTTP API that renders amounts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vegaprotocol/amounts/amount"
	"github.com/vegaprotocol/amounts/common"
	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
	"github.com/vegaprotocol/amounts/registry"
	"github.com/vegaprotocol/amounts/rewards"
	"github.com/vegaprotocol/amounts/ticket"
)

const (
	moduleName = "api"

	// Bound on the rewards request body.
	maxBodyBytes = 4 << 20
	// Bound on a scale request body.
	maxScaleBodyBytes = 4 << 10
)

// ScaleSource resolves market and asset IDs to their decimal places.
type ScaleSource interface {
	Market(id string) (*registry.Scale, error)
	Asset(id string) (*registry.Scale, error)
	Put(kind registry.Kind, s registry.Scale) error
}

// AmountsAPI serves formatted amounts.
type AmountsAPI struct {
	router  *chi.Mux
	scales  ScaleSource
	format  amount.Format
	logger  *log.Logger
	metrics metrics.AmountMetrics
}

// NewAmountsAPI creates the API. All rendering uses format.
func NewAmountsAPI(scales ScaleSource, format amount.Format, logger *log.Logger) *AmountsAPI {
	a := &AmountsAPI{
		router:  chi.NewRouter(),
		scales:  scales,
		format:  format,
		logger:  logger.WithModule(moduleName),
		metrics: metrics.NewDefaultAmountMetrics(),
	}

	a.router.Use(middleware.Recoverer)
	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		HumanReadableJsonErrorHandler(w, r, ErrNotFound)
	})
	a.router.Route("/v1", func(r chi.Router) {
		r.Get("/amounts/{value}", a.GetAmount)
		r.Route("/markets/{id}", func(r chi.Router) {
			r.Get("/price/{value}", a.GetMarketPrice)
			r.Get("/size/{value}", a.GetMarketSize)
			r.Get("/notional", a.GetNotional)
			r.Put("/", a.PutMarket)
		})
		r.Get("/assets/{id}/amount/{value}", a.GetAssetAmount)
		r.Put("/assets/{id}", a.PutAsset)
		r.Post("/rewards", a.PostRewards)
	})
	return a
}

// Router gets the router of the API, without the outer middlewares.
func (a *AmountsAPI) Router() *chi.Mux {
	return a.router
}

// Handler wraps the router in CORS, request metrics and, if timeout is
// set, a request deadline.
func (a *AmountsAPI) Handler(m metrics.RequestMetrics, corsAllowedOrigins []string, timeout *time.Duration) http.Handler {
	var h http.Handler = a.router
	if timeout != nil {
		h = middleware.Timeout(*timeout)(h)
	}
	h = MetricsMiddleware(m, a.logger)(h)
	return NewCorsMiddleware(corsAllowedOrigins)(h)
}

// AmountResponse is one amount in every representation the UI needs.
type AmountResponse struct {
	// Raw is the amount as received, normalized.
	Raw string `json:"raw"`
	// Decimal is Raw scaled by the decimal places, exact and ungrouped.
	Decimal string `json:"decimal"`
	// Fixed is Decimal rounded to exactly the decimal places and grouped.
	Fixed string           `json:"fixed"`
	Sign  amount.SignClass `json:"sign"`
	Class string           `json:"class"`
}

// ScaledResponse is an amount scaled by the decimals of a market or asset.
type ScaledResponse struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol,omitempty"`
	DecimalPlaces int32  `json:"decimal_places"`
	// Step is the smallest increment at DecimalPlaces.
	Step string `json:"step"`
	AmountResponse
}

// NotionalResponse is the notional size of an order.
type NotionalResponse struct {
	MarketID string `json:"market_id"`
	Price    string `json:"price"`
	Size     string `json:"size"`
	// Notional is the exact product of the scaled price and size.
	Notional string `json:"notional"`
	// Formatted is Notional rounded to the market's decimal places.
	Formatted string `json:"formatted"`
}

// RewardsRequest is the body of a rewards request. Markets may be omitted,
// in which case whether the reward asset is traded is left unknown.
type RewardsRequest struct {
	Transfers []rewards.Transfer `json:"transfers"`
	Markets   []rewards.Market   `json:"markets,omitempty"`
}

// GetAmount renders /v1/amounts/{value}?decimals=d.
func (a *AmountsAPI) GetAmount(w http.ResponseWriter, r *http.Request) {
	decimals, err := decimalsParam(r, "decimals")
	if err != nil {
		a.logAndReply(w, r, "bad decimals", err)
		return
	}
	resp, err := a.render("amount", chi.URLParam(r, "value"), decimals)
	if err != nil {
		a.logAndReply(w, r, "bad amount", err)
		return
	}
	a.reply(w, r, resp)
}

// GetMarketPrice renders a raw price with the market's decimal places.
func (a *AmountsAPI) GetMarketPrice(w http.ResponseWriter, r *http.Request) {
	a.scaled(w, r, "price", a.scales.Market, func(s *registry.Scale) int32 { return s.DecimalPlaces })
}

// GetMarketSize renders a raw size with the market's position decimal places.
func (a *AmountsAPI) GetMarketSize(w http.ResponseWriter, r *http.Request) {
	a.scaled(w, r, "size", a.scales.Market, func(s *registry.Scale) int32 { return s.PositionDecimalPlaces })
}

// GetAssetAmount renders a raw amount with the asset's decimals.
func (a *AmountsAPI) GetAssetAmount(w http.ResponseWriter, r *http.Request) {
	a.scaled(w, r, "asset_amount", a.scales.Asset, func(s *registry.Scale) int32 { return s.DecimalPlaces })
}

// GetNotional renders /v1/markets/{id}/notional?price=&size=.
func (a *AmountsAPI) GetNotional(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scale, err := a.scales.Market(id)
	if err != nil {
		a.logAndReply(w, r, "failed to resolve market", err)
		return
	}
	m := scale.Market()

	price, size := r.URL.Query().Get("price"), r.URL.Query().Get("size")
	notional, ok := ticket.NotionalSize(price, size, m)
	if !ok {
		a.metrics.MalformedInputs("notional").Inc()
		a.logAndReply(w, r, "bad notional inputs", fmt.Errorf("%w: price and size must be numbers", ErrBadRequest))
		return
	}

	a.reply(w, r, NotionalResponse{
		MarketID:  id,
		Price:     a.format.ScaleToDecimal(price, int(m.DecimalPlaces)),
		Size:      a.format.ScaleToDecimal(size, int(m.PositionDecimalPlaces)),
		Notional:  notional.String(),
		Formatted: a.format.FormatNumber(amount.Parse(notional.String()), int(m.DecimalPlaces)),
	})
}

// PutMarket registers or replaces the scale of a market.
func (a *AmountsAPI) PutMarket(w http.ResponseWriter, r *http.Request) {
	a.putScale(w, r, registry.KindMarket)
}

// PutAsset registers or replaces the decimals of an asset.
func (a *AmountsAPI) PutAsset(w http.ResponseWriter, r *http.Request) {
	a.putScale(w, r, registry.KindAsset)
}

func (a *AmountsAPI) putScale(w http.ResponseWriter, r *http.Request, kind registry.Kind) {
	id := chi.URLParam(r, "id")
	var s registry.Scale
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScaleBodyBytes)).Decode(&s); err != nil {
		a.logAndReply(w, r, "bad scale body", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	switch s.ID {
	case "":
		s.ID = id
	case id:
	default:
		a.logAndReply(w, r, "scale id mismatch", fmt.Errorf("%w: body id %q does not match %q", ErrBadRequest, s.ID, id))
		return
	}
	if err := a.scales.Put(kind, s); err != nil {
		a.logAndReply(w, r, "failed to store scale", err)
		return
	}
	a.logger.Info("scale updated", "request_id", requestID(r.Context()), "kind", kind, "id", s.ID)
	a.reply(w, r, s)
}

// PostRewards selects the rewards among the posted transfers and enriches
// them with the registered asset decimals.
func (a *AmountsAPI) PostRewards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	epoch, err := strconv.ParseUint(q.Get("epoch"), 10, 64)
	if err != nil {
		a.logAndReply(w, r, "bad epoch", ErrInvalidParam{Param: "epoch", Err: err})
		return
	}
	var opts rewards.Options
	if opts.OnlyActive, err = boolParam(r, "only_active"); err != nil {
		a.logAndReply(w, r, "bad only_active", err)
		return
	}
	if opts.ScopeToTeams, err = boolParam(r, "scope_to_teams"); err != nil {
		a.logAndReply(w, r, "bad scope_to_teams", err)
		return
	}

	var req RewardsRequest
	if err = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.logAndReply(w, r, "bad rewards body", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}

	rs := rewards.Filter(req.Transfers, epoch, opts)
	assets, err := a.assetsOf(rs)
	if err != nil {
		a.logAndReply(w, r, "failed to resolve assets", err)
		return
	}
	var markets map[string]rewards.Market
	if req.Markets != nil {
		markets = make(map[string]rewards.Market, len(req.Markets))
		for _, m := range req.Markets {
			markets[m.ID] = m
		}
	}

	a.reply(w, r, rewards.Enrich(rs, assets, markets))
}

// assetsOf looks up every asset referenced by rs. Unregistered assets are
// left out.
func (a *AmountsAPI) assetsOf(rs []rewards.Reward) (map[string]rewards.Asset, error) {
	assets := map[string]rewards.Asset{}
	for _, r := range rs {
		for _, id := range []string{r.AssetID, r.Strategy().DispatchMetricAssetID} {
			if _, ok := assets[id]; ok || id == "" {
				continue
			}
			s, err := a.scales.Asset(id)
			switch {
			case errors.Is(err, registry.ErrUnknown):
				continue
			case err != nil:
				return nil, err
			}
			assets[id] = rewards.Asset{ID: s.ID, Symbol: s.Symbol, Decimals: int(s.DecimalPlaces)}
		}
	}
	return assets, nil
}

func (a *AmountsAPI) scaled(w http.ResponseWriter, r *http.Request, op string, lookup func(string) (*registry.Scale, error), places func(*registry.Scale) int32) {
	scale, err := lookup(chi.URLParam(r, "id"))
	if err != nil {
		a.logAndReply(w, r, "failed to resolve scale", err)
		return
	}
	dp := places(scale)
	resp, err := a.render(op, chi.URLParam(r, "value"), int(dp))
	if err != nil {
		a.logAndReply(w, r, "bad "+op, err)
		return
	}
	a.reply(w, r, ScaledResponse{
		ID:             scale.ID,
		Symbol:         scale.Symbol,
		DecimalPlaces:  dp,
		Step:           amount.Step(int(dp)),
		AmountResponse: *resp,
	})
}

func (a *AmountsAPI) render(op, value string, decimals int) (*AmountResponse, error) {
	v, err := amount.ParseStrict(value)
	if err != nil {
		a.metrics.MalformedInputs(op).Inc()
		return nil, ErrInvalidParam{Param: "value", Err: err}
	}
	class := v.Class()
	a.metrics.Classifications(class.String()).Inc()
	return &AmountResponse{
		Raw:     v.String(),
		Decimal: a.format.ScaleToDecimal(v, decimals),
		Fixed:   a.format.FormatFixed(v, decimals),
		Sign:    class,
		Class:   a.format.Classes.For(class),
	}, nil
}

// decimalsParam reads a decimal places query parameter. It defaults to 0
// and must not exceed amount.MaxDecimalPlaces.
func decimalsParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 31)
	if err != nil {
		return 0, ErrInvalidParam{Param: name, Err: err}
	}
	if n > amount.MaxDecimalPlaces {
		return 0, ErrInvalidParam{Param: name, Err: fmt.Errorf("must be at most %d", amount.MaxDecimalPlaces)}
	}
	return int(n), nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ErrInvalidParam{Param: name, Err: err}
	}
	return b, nil
}

func requestID(ctx context.Context) interface{} {
	return ctx.Value(common.RequestIDContextKey)
}

func (a *AmountsAPI) logAndReply(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if HttpCodeForError(err) >= http.StatusInternalServerError {
		a.logger.Error(msg, "request_id", requestID(r.Context()), "err", err)
	} else {
		a.logger.Debug(msg, "request_id", requestID(r.Context()), "err", err)
	}
	HumanReadableJsonErrorHandler(w, r, err)
}

func (a *AmountsAPI) reply(w http.ResponseWriter, r *http.Request, v interface{}) {
	resp, err := json.Marshal(v)
	if err != nil {
		a.logAndReply(w, r, "failed to marshal response", err)
		return
	}
	w.Header().Set("content-type", "application/json")
	if _, err := w.Write(resp); err != nil {
		a.logger.Error("failed to write response",
			"request_id", requestID(r.Context()),
			"err", err,
		)
	}
}
