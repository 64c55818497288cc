package usecase

import (
	"sort"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// Selection is the capped bullet set plus the ordering downstream
// renderers should use.
type Selection struct {
	// Bullets in global selection order (adjusted score descending).
	Bullets []domain.MergedCandidate
	// Ordered is the render order: grouped by parent, groups by their
	// best raw score, bullets within a group by raw score.
	Ordered []domain.BulletID
}

// SelectionPolicy adjusts the selected set after the score cut. The
// pool is the full merged ranking, so a policy can pull back a bullet
// the cap dropped.
type SelectionPolicy interface {
	Name() string
	Apply(pool, selected []domain.MergedCandidate, maxBullets int) []domain.MergedCandidate
}

// SelectBullets caps the merged pool to maxBullets by adjusted score,
// where experience bullets get their weighted score multiplied by
// experienceWeight. Policies run after the cut, in order.
func SelectBullets(candidates []domain.MergedCandidate, maxBullets int, experienceWeight float64, policies ...SelectionPolicy) Selection {
	if maxBullets <= 0 || len(candidates) == 0 {
		return Selection{}
	}

	adjusted := func(c domain.MergedCandidate) float64 {
		if c.BulletID.Parent == domain.ParentExperience {
			return c.WeightedScore * experienceWeight
		}
		return c.WeightedScore
	}

	ranked := make([]domain.MergedCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ai, aj := adjusted(ranked[i]), adjusted(ranked[j])
		if ai != aj {
			return ai > aj
		}
		return ranked[i].BulletID.String() < ranked[j].BulletID.String()
	})

	selected := ranked
	if len(selected) > maxBullets {
		selected = selected[:maxBullets]
	}
	selected = append([]domain.MergedCandidate(nil), selected...)

	for _, p := range policies {
		selected = p.Apply(candidates, selected, maxBullets)
	}

	return Selection{
		Bullets: selected,
		Ordered: renderOrder(selected),
	}
}

// renderOrder groups by parent and orders groups by their strongest
// raw score; within a group, raw score descending, bullet id ascending.
func renderOrder(selected []domain.MergedCandidate) []domain.BulletID {
	type group struct {
		key     string
		best    float64
		bullets []domain.MergedCandidate
	}

	byParent := make(map[string]*group)
	var order []*group
	for _, c := range selected {
		key := string(c.BulletID.Parent) + ":" + c.BulletID.ParentID
		g, ok := byParent[key]
		if !ok {
			g = &group{key: key}
			byParent[key] = g
			order = append(order, g)
		}
		g.bullets = append(g.bullets, c)
		if c.WeightedScore > g.best {
			g.best = c.WeightedScore
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].best != order[j].best {
			return order[i].best > order[j].best
		}
		return order[i].key < order[j].key
	})

	ids := make([]domain.BulletID, 0, len(selected))
	for _, g := range order {
		sort.SliceStable(g.bullets, func(i, j int) bool {
			if g.bullets[i].WeightedScore != g.bullets[j].WeightedScore {
				return g.bullets[i].WeightedScore > g.bullets[j].WeightedScore
			}
			return g.bullets[i].BulletID.String() < g.bullets[j].BulletID.String()
		})
		for _, c := range g.bullets {
			ids = append(ids, c.BulletID)
		}
	}
	return ids
}

// RecentJobAnchor keeps the strongest bullet of one job in the
// selection even when the cap would drop it. Off unless configured.
type RecentJobAnchor struct {
	JobID string
}

func (RecentJobAnchor) Name() string { return "recent_job_anchor" }

func (a RecentJobAnchor) Apply(pool, selected []domain.MergedCandidate, maxBullets int) []domain.MergedCandidate {
	if a.JobID == "" {
		return selected
	}

	var anchor *domain.MergedCandidate
	for i := range pool {
		c := pool[i]
		if c.BulletID.Parent != domain.ParentExperience || c.BulletID.ParentID != a.JobID {
			continue
		}
		if anchor == nil || c.WeightedScore > anchor.WeightedScore {
			anchor = &pool[i]
		}
	}
	if anchor == nil {
		return selected
	}
	for _, c := range selected {
		if c.BulletID == anchor.BulletID {
			return selected
		}
	}

	if len(selected) < maxBullets {
		return append(selected, *anchor)
	}
	// Replace the weakest selected bullet.
	weakest := 0
	for i := 1; i < len(selected); i++ {
		if selected[i].WeightedScore < selected[weakest].WeightedScore {
			weakest = i
		}
	}
	out := append([]domain.MergedCandidate(nil), selected...)
	out[weakest] = *anchor
	return out
}
