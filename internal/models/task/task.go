package task

import (
	"time"
)

type Task struct {
	ID                  int64              `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	PublisherID         int64              `json:"publisherId" db:"publisher_id" gorm:"index;not null"`
	Title               string             `json:"title" db:"title" gorm:"size:255;not null"`
	Description         string             `json:"description" db:"description" gorm:"not null"`
	Category            Category           `json:"category" db:"category" gorm:"size:16;index;not null"`
	TaskType            TaskType           `json:"taskType" db:"task_type" gorm:"size:16;not null;default:oneTime"`
	BountyAmount        int64              `json:"bountyAmount" db:"bounty_amount" gorm:"not null"`
	ParticipantCount    int                `json:"participantCount" db:"participant_count" gorm:"not null;default:1"`
	CurrentParticipants int                `json:"currentParticipants" db:"current_participants" gorm:"not null;default:0"`
	Location            string             `json:"location,omitempty" db:"location" gorm:"size:255"`
	Latitude            string             `json:"latitude,omitempty" db:"latitude" gorm:"size:50"`
	Longitude           string             `json:"longitude,omitempty" db:"longitude" gorm:"size:50"`
	IsOnline            bool               `json:"isOnline" db:"is_online" gorm:"index;not null;default:false"`
	Radius              int                `json:"radius" db:"radius" gorm:"not null;default:5"`
	StartTime           *time.Time         `json:"startTime,omitempty" db:"start_time"`
	EndTime             *time.Time         `json:"endTime,omitempty" db:"end_time" gorm:"index"`
	Tags                string             `json:"tags,omitempty" db:"tags"`
	RequiredSkills      string             `json:"requiredSkills,omitempty" db:"required_skills"`
	Status              Status             `json:"status" db:"status" gorm:"size:16;index;not null;default:open"`
	VerificationMethod  VerificationMethod `json:"verificationMethod" db:"verification_method" gorm:"size:16;not null;default:mutual"`
	CreatedAt           time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time          `json:"updatedAt" db:"updated_at"`
}

type Category string
type TaskType string
type VerificationMethod string

const (
	CategoryStudy   Category = "study"
	CategoryFitness Category = "fitness"
	CategoryTravel  Category = "travel"
	CategoryFood    Category = "food"
	CategoryLife    Category = "life"
	CategorySkill   Category = "skill"
	CategoryOther   Category = "other"
)

const (
	TypeOneTime   TaskType = "oneTime"
	TypeRecurring TaskType = "recurring"
	TypeGroup     TaskType = "group"
)

const (
	VerificationPhoto   VerificationMethod = "photo"
	VerificationCheckin VerificationMethod = "checkin"
	VerificationMutual  VerificationMethod = "mutual"
	VerificationGPS     VerificationMethod = "gps"
)

const (
	DefaultParticipantCount = 1
	DefaultRadius           = 5
)

var Categories = []Category{
	CategoryStudy, CategoryFitness, CategoryTravel, CategoryFood,
	CategoryLife, CategorySkill, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (t TaskType) Valid() bool {
	switch t {
	case TypeOneTime, TypeRecurring, TypeGroup:
		return true
	}
	return false
}

func (v VerificationMethod) Valid() bool {
	switch v {
	case VerificationPhoto, VerificationCheckin, VerificationMutual, VerificationGPS:
		return true
	}
	return false
}

// Stats - агрегаты по открытым задачам для главной страницы
type Stats struct {
	OpenTasks   int64 `json:"openTasks"`
	TotalBounty int64 `json:"totalBounty"`
}
