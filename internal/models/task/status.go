package task

type Status string

const (
	StatusOpen       Status = "open"
	StatusMatched    Status = "matched"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDisputed   Status = "disputed"
)

// таблица разрешённых переходов жизненного цикла задачи,
// у терминальных статусов исходящих переходов нет
var transitions = map[Status][]Status{
	StatusOpen:       {StatusMatched, StatusCancelled},
	StatusMatched:    {StatusInProgress, StatusCancelled, StatusDisputed},
	StatusInProgress: {StatusCompleted, StatusDisputed, StatusCancelled},
	StatusDisputed:   {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition сообщает, есть ли прямое ребро from -> to в таблице
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions возвращает копию списка допустимых целевых статусов
func AllowedTransitions(from Status) []Status {
	next := transitions[from]
	res := make([]Status, len(next))
	copy(res, next)
	return res
}
