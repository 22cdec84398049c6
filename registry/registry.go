// Package registry keeps the decimal places of markets and assets, so that
// every amount is always scaled by the decimals of the quantity it belongs to.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vegaprotocol/amounts/amount"
	"github.com/vegaprotocol/amounts/cache/kvstore"
	"github.com/vegaprotocol/amounts/config"
	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
	"github.com/vegaprotocol/amounts/ticket"
)

const moduleName = "registry"

var (
	// ErrUnknown is returned for IDs that were never registered.
	ErrUnknown = errors.New("unknown id")
	// ErrInvalidScale is returned by Put for scales that cannot be stored.
	ErrInvalidScale = errors.New("invalid scale")
)

// Kind is what a scale belongs to.
type Kind string

const (
	KindMarket Kind = "market"
	KindAsset  Kind = "asset"
)

func (k Kind) Valid() bool {
	return k == KindMarket || k == KindAsset
}

// Scale is the decimal places of one market or asset.
type Scale struct {
	ID     string `cbor:"1,keyasint" json:"id"`
	Symbol string `cbor:"2,keyasint,omitempty" json:"symbol,omitempty"`
	// DecimalPlaces is the price scale of a market or the decimals of an asset.
	DecimalPlaces int32 `cbor:"3,keyasint" json:"decimal_places"`
	// PositionDecimalPlaces is the size scale of a market.
	PositionDecimalPlaces int32 `cbor:"4,keyasint" json:"position_decimal_places"`
}

// Market returns the order ticket view of a market scale.
func (s Scale) Market() ticket.Market {
	return ticket.Market{
		DecimalPlaces:         s.DecimalPlaces,
		PositionDecimalPlaces: s.PositionDecimalPlaces,
	}
}

func (s Scale) validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidScale)
	}
	if s.DecimalPlaces < 0 || s.PositionDecimalPlaces < 0 {
		return fmt.Errorf("%w: negative decimal places for %s", ErrInvalidScale, s.ID)
	}
	if s.DecimalPlaces > amount.MaxDecimalPlaces || s.PositionDecimalPlaces > amount.MaxDecimalPlaces {
		return fmt.Errorf("%w: decimal places for %s exceed %d", ErrInvalidScale, s.ID, amount.MaxDecimalPlaces)
	}
	return nil
}

// Registry resolves IDs to scales. The configured scales are written to the
// store whenever a registry is created, so they replace whatever an earlier
// run left behind. Scales put at runtime take precedence over the configured
// ones until the next restart.
type Registry struct {
	store  kvstore.KVStore
	static map[Kind]map[string]Scale
	logger *log.Logger
}

// New creates a registry over store, seeded with the scales in cfg. cfg may
// be nil.
func New(store kvstore.KVStore, cfg *config.RegistryConfig, logger *log.Logger) *Registry {
	r := &Registry{
		store:  store,
		static: map[Kind]map[string]Scale{KindMarket: {}, KindAsset: {}},
		logger: logger.WithModule(moduleName),
	}
	if cfg != nil {
		for _, s := range cfg.Markets {
			r.seed(KindMarket, scaleFromConfig(s))
		}
		for _, s := range cfg.Assets {
			r.seed(KindAsset, scaleFromConfig(s))
		}
	}
	r.logger.Info("registry initialized",
		"markets", len(r.static[KindMarket]),
		"assets", len(r.static[KindAsset]),
	)
	return r
}

// Open creates a registry backed by a pogreb store under cfg.CacheDir, or by
// memory if cfg has no cache directory.
func Open(cfg *config.RegistryConfig, logger *log.Logger) (*Registry, error) {
	m := metrics.NewDefaultCacheMetrics(moduleName)
	if cfg == nil || cfg.CacheDir == "" {
		return New(kvstore.NewMemoryKVStore(m), cfg, logger), nil
	}
	store, err := kvstore.OpenKVStore(logger.WithModule(moduleName), filepath.Join(cfg.CacheDir, moduleName), m)
	if err != nil {
		return nil, fmt.Errorf("opening registry store: %w", err)
	}
	return New(store, cfg, logger), nil
}

// seed registers a configured scale and overwrites any stored copy of it.
func (r *Registry) seed(kind Kind, s Scale) {
	if err := s.validate(); err != nil {
		r.logger.Error("skipping configured scale", "kind", kind, "err", err)
		return
	}
	r.static[kind][s.ID] = s
	if err := kvstore.PutTyped(r.store, cacheKey(kind, s.ID), &s); err != nil {
		r.logger.Error("failed to store configured scale", "kind", kind, "id", s.ID, "err", err)
	}
}

func scaleFromConfig(s config.ScaleConfig) Scale {
	return Scale{
		ID:                    s.ID,
		Symbol:                s.Symbol,
		DecimalPlaces:         s.DecimalPlaces,
		PositionDecimalPlaces: s.PositionDecimalPlaces,
	}
}

func cacheKey(kind Kind, id string) kvstore.CacheKey {
	return kvstore.GenerateCacheKey(string(kind), id)
}

// Put stores s under kind, replacing any previous scale with the same ID.
func (r *Registry) Put(kind Kind, s Scale) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: invalid kind %q", ErrInvalidScale, kind)
	}
	if err := s.validate(); err != nil {
		return err
	}
	if err := kvstore.PutTyped(r.store, cacheKey(kind, s.ID), &s); err != nil {
		return fmt.Errorf("storing %s %s: %w", kind, s.ID, err)
	}
	r.logger.Debug("scale stored", "kind", kind, "id", s.ID, "decimal_places", s.DecimalPlaces)
	return nil
}

// Get returns the scale of the given kind and ID. Configured scales missing
// from the store are copied into it on first use.
func (r *Registry) Get(kind Kind, id string) (*Scale, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid kind %q", kind)
	}
	return kvstore.GetFromCacheOrCall(r.store, false, cacheKey(kind, id), func() (*Scale, error) {
		s, ok := r.static[kind][id]
		if !ok {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrUnknown)
		}
		return &s, nil
	})
}

// Market returns the scale of market id.
func (r *Registry) Market(id string) (*Scale, error) {
	return r.Get(KindMarket, id)
}

// Asset returns the scale of asset id.
func (r *Registry) Asset(id string) (*Scale, error) {
	return r.Get(KindAsset, id)
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}
