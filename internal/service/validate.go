package service

import (
	"bountyBuddy/internal/models/task"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength    = 255
	maxLocationLength = 255
	maxMessageLength  = 1000
)

// buildTask проверяет ввод и собирает задачу в статусе open.
// Для онлайн-задач место и координаты отбрасываются
func buildTask(in task.CreateInput) (*task.Task, error) {
	if in.PublisherID <= 0 {
		return nil, NewValidationError("publisherId", "обязательное поле")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "обязательное поле")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, NewValidationError("title", "слишком длинное значение")
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, NewValidationError("description", "обязательное поле")
	}

	if in.Category == "" {
		return nil, NewValidationError("category", "обязательное поле")
	}
	if !in.Category.Valid() {
		return nil, NewValidationError("category", "неизвестная категория")
	}

	if in.BountyAmount == nil {
		return nil, NewValidationError("bountyAmount", "обязательное поле")
	}
	if *in.BountyAmount < 0 {
		return nil, NewValidationError("bountyAmount", "не может быть отрицательной")
	}

	taskType := in.TaskType
	if taskType == "" {
		taskType = task.TypeOneTime
	}
	if !taskType.Valid() {
		return nil, NewValidationError("taskType", "неизвестный тип задачи")
	}

	verification := in.VerificationMethod
	if verification == "" {
		verification = task.VerificationMutual
	}
	if !verification.Valid() {
		return nil, NewValidationError("verificationMethod", "неизвестный способ подтверждения")
	}

	participants := in.ParticipantCount
	if participants == 0 {
		participants = task.DefaultParticipantCount
	}
	if participants < 1 {
		return nil, NewValidationError("participantCount", "должно быть не меньше 1")
	}

	radius := in.Radius
	if radius == 0 {
		radius = task.DefaultRadius
	}
	if radius < 0 {
		return nil, NewValidationError("radius", "не может быть отрицательным")
	}

	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Before(*in.StartTime) {
		return nil, NewValidationError("endTime", "раньше времени начала")
	}

	t := &task.Task{
		PublisherID:        in.PublisherID,
		Title:              title,
		Description:        description,
		Category:           in.Category,
		TaskType:           taskType,
		BountyAmount:       *in.BountyAmount,
		ParticipantCount:   participants,
		IsOnline:           in.IsOnline,
		Radius:             radius,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		Tags:               strings.TrimSpace(in.Tags),
		RequiredSkills:     strings.TrimSpace(in.RequiredSkills),
		Status:             task.StatusOpen,
		VerificationMethod: verification,
	}

	if in.IsOnline {
		return t, nil
	}

	t.Location = strings.TrimSpace(in.Location)
	if utf8.RuneCountInString(t.Location) > maxLocationLength {
		return nil, NewValidationError("location", "слишком длинное значение")
	}

	lat, err := parseCoordinate("latitude", in.Latitude, 90)
	if err != nil {
		return nil, err
	}
	lng, err := parseCoordinate("longitude", in.Longitude, 180)
	if err != nil {
		return nil, err
	}
	t.Latitude, t.Longitude = lat, lng

	return t, nil
}

// parseCoordinate принимает десятичные градусы в пределах [-limit, limit]
func parseCoordinate(field, raw string, limit float64) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", NewValidationError(field, "ожидаются десятичные градусы")
	}
	if math.IsNaN(value) || value < -limit || value > limit {
		return "", NewValidationError(field, "вне допустимого диапазона")
	}
	return raw, nil
}
