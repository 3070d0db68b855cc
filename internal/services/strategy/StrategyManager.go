package strategy

import (
	"context"
	"sort"
	"time"
)

// Manager fans a request out to every configured signal source and keeps at
// most one candidate per symbol, the highest-confidence one. Output order is
// deterministic (symbol ascending) so identical inputs replay identically.
type Manager struct {
	sources []SignalSource
}

func NewManager(sources ...SignalSource) *Manager {
	return &Manager{sources: sources}
}

func (m *Manager) Name() string { return "manager" }

func (m *Manager) GetCandidates(ctx context.Context, date time.Time, universe []string) ([]Candidate, error) {
	best := make(map[string]Candidate)
	for _, src := range m.sources {
		candidates, err := src.GetCandidates(ctx, date, universe)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if cur, ok := best[c.Symbol]; !ok || c.Confidence > cur.Confidence {
				best[c.Symbol] = c
			}
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
