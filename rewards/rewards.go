// Package rewards selects and enriches reward transfers.
//
// A reward is a recurring transfer carrying a dispatch strategy. The
// data node returns all transfers; this package narrows them down to the
// rewards worth showing and attaches the asset and markets they refer to.
package rewards

import (
	"github.com/vegaprotocol/amounts/amount"
)

type TransferStatus string

const (
	StatusPending   TransferStatus = "STATUS_PENDING"
	StatusDone      TransferStatus = "STATUS_DONE"
	StatusRejected  TransferStatus = "STATUS_REJECTED"
	StatusStopped   TransferStatus = "STATUS_STOPPED"
	StatusCancelled TransferStatus = "STATUS_CANCELLED"
)

type EntityScope string

const (
	EntityScopeIndividuals EntityScope = "ENTITY_SCOPE_INDIVIDUALS"
	EntityScopeTeams       EntityScope = "ENTITY_SCOPE_TEAMS"
)

type IndividualScope string

const (
	IndividualScopeAll       IndividualScope = "INDIVIDUAL_SCOPE_ALL"
	IndividualScopeInTeam    IndividualScope = "INDIVIDUAL_SCOPE_IN_TEAM"
	IndividualScopeNotInTeam IndividualScope = "INDIVIDUAL_SCOPE_NOT_IN_TEAM"
)

// KindRecurring is the type name of recurring transfers.
const KindRecurring = "RecurringTransfer"

type MarketState string

const MarketStateActive MarketState = "STATE_ACTIVE"

// DispatchStrategy describes how a recurring transfer is paid out.
type DispatchStrategy struct {
	DispatchMetric        string          `json:"dispatchMetric"`
	DispatchMetricAssetID string          `json:"dispatchMetricAssetId"`
	EntityScope           EntityScope     `json:"entityScope"`
	IndividualScope       IndividualScope `json:"individualScope,omitempty"`
	MarketIDsInScope      []string        `json:"marketIdsInScope,omitempty"`
}

// TransferKind is the one-off or recurring part of a transfer.
type TransferKind struct {
	TypeName         string            `json:"__typename"`
	StartEpoch       uint64            `json:"startEpoch"`
	EndEpoch         *uint64           `json:"endEpoch,omitempty"`
	DispatchStrategy *DispatchStrategy `json:"dispatchStrategy,omitempty"`
}

// Transfer is a transfer as returned by the data node. Amount is the raw
// integer amount in the smallest unit of AssetID.
type Transfer struct {
	ID      string         `json:"id"`
	From    string         `json:"from"`
	To      string         `json:"to"`
	AssetID string         `json:"assetId"`
	Amount  string         `json:"amount"`
	Status  TransferStatus `json:"status"`
	Kind    TransferKind   `json:"kind"`
}

// Asset is the subset of asset fields needed for enrichment.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Market is the subset of market fields needed for enrichment.
type Market struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	State             MarketState `json:"state"`
	SettlementAssetID string      `json:"settlementAssetId"`
}

// Reward is a transfer known to satisfy IsReward, so its dispatch strategy
// is never nil.
type Reward struct {
	Transfer
}

// Strategy returns the dispatch strategy of the reward.
func (r Reward) Strategy() *DispatchStrategy {
	return r.Kind.DispatchStrategy
}

// EnrichedReward is a reward with the data needed to render it.
type EnrichedReward struct {
	Reward
	// Asset is the dispatch metric asset, if known.
	Asset *Asset `json:"asset,omitempty"`
	// IsAssetTraded reports whether the dispatch asset settles any active
	// market. Nil when no markets were supplied.
	IsAssetTraded *bool `json:"isAssetTraded,omitempty"`
	// Markets are the markets in scope that are known.
	Markets []Market `json:"markets,omitempty"`
	// AmountFormatted is the transfer amount scaled by the decimals of the
	// transferred asset, if that asset is known.
	AmountFormatted string `json:"amountFormatted,omitempty"`
}

// IsReward reports whether t is a recurring transfer with a dispatch
// strategy.
func IsReward(t Transfer) bool {
	return t.Kind.TypeName == KindRecurring && t.Kind.DispatchStrategy != nil
}

// IsActive reports whether the reward is pending and currentEpoch lies
// within its epoch window. A missing end epoch leaves the window open.
func IsActive(r Reward, currentEpoch uint64) bool {
	if r.Status != StatusPending {
		return false
	}
	if r.Kind.StartEpoch > currentEpoch {
		return false
	}
	return r.Kind.EndEpoch == nil || *r.Kind.EndEpoch >= currentEpoch
}

// IsScopedToTeams reports whether the reward is paid to teams, either
// directly or to individuals that must be in a team.
func IsScopedToTeams(r Reward) bool {
	s := r.Strategy()
	return s.EntityScope == EntityScopeTeams ||
		(s.EntityScope == EntityScopeIndividuals && s.IndividualScope == IndividualScopeInTeam)
}

// Options narrow down the result of Filter.
type Options struct {
	// OnlyActive keeps only rewards active at the current epoch.
	OnlyActive bool
	// ScopeToTeams keeps only rewards scoped to teams.
	ScopeToTeams bool
}

// Filter returns the rewards among transfers, in input order.
func Filter(transfers []Transfer, currentEpoch uint64, opts Options) []Reward {
	var out []Reward
	for _, t := range transfers {
		if !IsReward(t) {
			continue
		}
		r := Reward{t}
		if opts.OnlyActive && !IsActive(r, currentEpoch) {
			continue
		}
		if opts.ScopeToTeams && !IsScopedToTeams(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Enrich attaches asset and market details to each reward. Either map may
// be nil when the corresponding data is not loaded yet.
func Enrich(rs []Reward, assets map[string]Asset, markets map[string]Market) []EnrichedReward {
	out := make([]EnrichedReward, 0, len(rs))
	for _, r := range rs {
		s := r.Strategy()
		e := EnrichedReward{Reward: r}

		if a, ok := assets[s.DispatchMetricAssetID]; ok {
			e.Asset = &a
		}
		for _, id := range s.MarketIDsInScope {
			if m, ok := markets[id]; ok {
				e.Markets = append(e.Markets, m)
			}
		}
		if markets != nil {
			traded := false
			for _, m := range markets {
				if m.SettlementAssetID == s.DispatchMetricAssetID && m.State == MarketStateActive {
					traded = true
					break
				}
			}
			e.IsAssetTraded = &traded
		}
		if a, ok := assets[r.AssetID]; ok {
			e.AmountFormatted = amount.FormatFixed(r.Amount, a.Decimals)
		}
		out = append(out, e)
	}
	return out
}
