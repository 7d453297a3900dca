package application

import "time"

type Application struct {
	ID          int64     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	TaskID      int64     `json:"taskId" db:"task_id" gorm:"index;not null"`
	ApplicantID int64     `json:"applicantId" db:"applicant_id" gorm:"index;not null"`
	Status      Status    `json:"status" db:"status" gorm:"size:16;not null;default:pending"`
	Message     string    `json:"message,omitempty" db:"message"`
	MatchScore  int       `json:"matchScore" db:"match_score" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (Application) TableName() string {
	return "task_applications"
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)
