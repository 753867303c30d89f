package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"optionstracker/internal/models"
	"optionstracker/internal/repository"
	"optionstracker/internal/scanner"
)

// Candidate is one rule match tied to its contract. ContractID is nil for
// symbol-level matches.
type Candidate struct {
	ContractID *uint64
	Match      scanner.Match
}

// Manager owns the opportunity lifecycle. Reconcile runs inside the
// symbol's refresh transaction so the scan outcome commits atomically with
// the data it was computed from.
type Manager struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type oppKey struct {
	contractID uint64 // 0 for symbol-level
	typ        models.OpportunityType
}

func keyFor(contractID *uint64, typ models.OpportunityType) oppKey {
	k := oppKey{typ: typ}
	if contractID != nil {
		k.contractID = *contractID
	}
	return k
}

// Reconcile compares this scan's candidates against the symbol's active
// opportunities: new matches insert Active rows, repeated matches are
// updated in place, actives with no match are retired. Retired rows stay
// forever; a later re-match inserts a fresh row.
func (m *Manager) Reconcile(ctx context.Context, tx *gorm.DB, symbolID uint64, candidates []Candidate, now time.Time) error {
	existing, err := m.Repo.ActiveOpportunitiesBySymbolTx(ctx, tx, symbolID)
	if err != nil {
		return fmt.Errorf("load active opportunities: %w", err)
	}
	actives := make(map[oppKey]*models.Opportunity, len(existing))
	for i := range existing {
		actives[keyFor(existing[i].ContractID, existing[i].Type)] = &existing[i]
	}

	matched := make(map[oppKey]bool, len(candidates))
	for _, c := range candidates {
		key := keyFor(c.ContractID, c.Match.Type)
		if matched[key] {
			continue
		}
		matched[key] = true

		metrics, err := json.Marshal(c.Match.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}

		if cur, ok := actives[key]; ok {
			cur.Score = c.Match.Score
			cur.Description = c.Match.Description
			cur.Metrics = metrics
			cur.Timestamp = now
			if err := m.Repo.UpdateOpportunityTx(ctx, tx, cur); err != nil {
				return fmt.Errorf("update opportunity: %w", err)
			}
			continue
		}

		opp := &models.Opportunity{
			SymbolID:    symbolID,
			ContractID:  c.ContractID,
			Type:        c.Match.Type,
			Score:       c.Match.Score,
			Description: c.Match.Description,
			Metrics:     metrics,
			Active:      true,
			Timestamp:   now,
		}
		if err := m.Repo.InsertOpportunityTx(ctx, tx, opp); err != nil {
			return fmt.Errorf("insert opportunity: %w", err)
		}
		m.Logger.Info("opportunity opened",
			zap.Uint64("symbol_id", symbolID),
			zap.String("type", string(c.Match.Type)),
			zap.Float64("score", c.Match.Score))
	}

	for key, cur := range actives {
		if matched[key] {
			continue
		}
		if err := m.Repo.RetireOpportunityTx(ctx, tx, cur.ID, now); err != nil {
			return fmt.Errorf("retire opportunity: %w", err)
		}
		m.Logger.Info("opportunity retired",
			zap.Uint64("symbol_id", symbolID),
			zap.Uint64("id", cur.ID),
			zap.String("type", string(cur.Type)))
	}
	return nil
}
