package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostRecord is the post-history row written after each publish attempt.
// Recording is best-effort; the pipeline outcome never depends on it.
type PostRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Profile     string    `gorm:"type:text;not null;index" json:"profile"`
	Theme       string    `gorm:"type:text;not null" json:"theme"`
	Caption     string    `gorm:"type:text" json:"caption"`
	PhrasesJSON string    `gorm:"type:jsonb" json:"phrases_json"`
	Platform    string    `gorm:"type:text;not null" json:"platform"`
	State       string    `gorm:"type:text;not null" json:"state"`
	FailureKind string    `gorm:"type:text" json:"failure_kind,omitempty"`
	PostID      string    `gorm:"type:text" json:"post_id,omitempty"`
	StagedURL   string    `gorm:"type:text" json:"staged_url,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
