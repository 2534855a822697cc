package model

// Question is one expected-answer unit inside an exercise. Order is the
// position answers are submitted against. For choice questions Answer holds
// the correct option identifier; for text questions the expected string.
// swagger:model Question
type Question struct {
	BaseModel
	ExerciseID       uint   `gorm:"index;type:bigint unsigned" json:"exerciseId"`
	Order            int    `gorm:"column:question_order" json:"order"`
	Prompt           string `gorm:"type:text" json:"prompt"`
	QuestionType     string `gorm:"size:20;default:'text'" json:"questionType"`
	Options          string `gorm:"type:json" json:"options,omitempty"`
	Answer           string `gorm:"size:255" json:"-"`
	TimeLimitSeconds int    `json:"timeLimitSeconds,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}
