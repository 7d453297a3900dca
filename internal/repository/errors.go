package repository

import "errors"

var (
	ErrNotFound = errors.New("запись не найдена")
	// ErrUnavailable - хранилище недоступно (нет соединения, таймаут)
	ErrUnavailable = errors.New("хранилище недоступно")
	// ErrConflict - статус задачи изменился между чтением и записью
	ErrConflict = errors.New("статус задачи изменился")
)
