package model

// Lesson is passive learning content (video or audio) shown alongside
// exercises. Durations are probed at upload time.
// swagger:model Lesson
type Lesson struct {
	BaseModel
	Title           string `gorm:"size:200;not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	VideoURL        string `gorm:"size:255" json:"videoUrl,omitempty"`
	AudioURL        string `gorm:"size:255" json:"audioUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	Level           int    `gorm:"default:1" json:"level"`
	Order           int    `gorm:"column:lesson_order" json:"order"`
	Published       bool   `gorm:"default:false;index" json:"published"`
	CreatorID       uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Lesson) TableName() string {
	return "lessons"
}
