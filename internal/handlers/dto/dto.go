package dto

import (
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/presentation"
	"time"
)

type CreateTaskRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	BountyAmount       *int64     `json:"bountyAmount"`
	TaskType           string     `json:"taskType,omitempty"`
	ParticipantCount   int        `json:"participantCount,omitempty"`
	Location           string     `json:"location,omitempty"`
	Latitude           string     `json:"latitude,omitempty"`
	Longitude          string     `json:"longitude,omitempty"`
	IsOnline           bool       `json:"isOnline"`
	Radius             int        `json:"radius,omitempty"`
	StartTime          *time.Time `json:"startTime,omitempty"`
	EndTime            *time.Time `json:"endTime,omitempty"`
	Tags               string     `json:"tags,omitempty"`
	RequiredSkills     string     `json:"requiredSkills,omitempty"`
	VerificationMethod string     `json:"verificationMethod,omitempty"`
}

// ToInput переводит тело запроса во ввод сервиса; издатель берётся из заголовка, а не из тела
func (r CreateTaskRequest) ToInput(publisherID int64) task.CreateInput {
	return task.CreateInput{
		PublisherID:        publisherID,
		Title:              r.Title,
		Description:        r.Description,
		Category:           task.Category(r.Category),
		BountyAmount:       r.BountyAmount,
		TaskType:           task.TaskType(r.TaskType),
		ParticipantCount:   r.ParticipantCount,
		Location:           r.Location,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		IsOnline:           r.IsOnline,
		Radius:             r.Radius,
		StartTime:          r.StartTime,
		EndTime:            r.EndTime,
		Tags:               r.Tags,
		RequiredSkills:     r.RequiredSkills,
		VerificationMethod: task.VerificationMethod(r.VerificationMethod),
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ApplyRequest struct {
	Message string `json:"message"`
}

type TaskResponse struct {
	*task.Task
	Display presentation.DisplayModel `json:"display"`
}

type PageResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	NextCursor int64          `json:"nextCursor,omitempty"`
}

func FromTask(t *task.Task, cfg presentation.Config) TaskResponse {
	return TaskResponse{
		Task:    t,
		Display: cfg.Display(t),
	}
}

func FromTaskList(tasks []*task.Task, cfg presentation.Config) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, cfg)
	}
	return result
}

func FromPage(page *task.Page, cfg presentation.Config) PageResponse {
	return PageResponse{
		Tasks:      FromTaskList(page.Tasks, cfg),
		NextCursor: page.NextCursor,
	}
}
