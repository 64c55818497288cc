package domain

// RetrievalHit is one (query, candidate) pair from the vector index.
// Similarity is cosine-style in [0,1], higher is closer.
type RetrievalHit struct {
	BulletID    BulletID `json:"bullet_id"`
	Text        string   `json:"text"`
	Similarity  float64  `json:"similarity"`
	Query       string   `json:"query"`
	QueryWeight float64  `json:"query_weight"`
}

// MergedCandidate is a bullet after merging hits across all queries.
// WeightedScore accumulates similarity x query weight and is therefore
// monotone non-decreasing as more matching queries are added.
type MergedCandidate struct {
	BulletID      BulletID `json:"bullet_id"`
	Text          string   `json:"text"`
	WeightedScore float64  `json:"weighted_score"`
	HitCount      int      `json:"hit_count"`
}

// IndexPoint is one bullet prepared for an index generation rebuild.
type IndexPoint struct {
	BulletID BulletID
	Text     string
	Vector   []float32
}
