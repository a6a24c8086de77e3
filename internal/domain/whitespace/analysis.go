package whitespace

import "time"

// KnnEdge is a per-user similarity edge. Last write wins on (user_id, src, dst).
type KnnEdge struct {
	UserID    string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	Src       string    `gorm:"column:src;primaryKey" json:"src"`
	Dst       string    `gorm:"column:dst;primaryKey" json:"dst"`
	W         float64   `gorm:"column:w;not null" json:"w"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (KnnEdge) TableName() string { return "knn_edge" }

// UserWhitespaceAnalysis is the latest per-user score of one node under one
// embedding model.
type UserWhitespaceAnalysis struct {
	UserID          string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	PubID           string    `gorm:"column:pub_id;primaryKey" json:"pub_id"`
	Model           string    `gorm:"column:model;primaryKey" json:"model"`
	ClusterID       int       `gorm:"column:cluster_id" json:"cluster_id"`
	LocalDensity    float64   `gorm:"column:local_density" json:"local_density"`
	WhitespaceScore float64   `gorm:"column:whitespace_score" json:"whitespace_score"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserWhitespaceAnalysis) TableName() string { return "user_whitespace_analysis" }
