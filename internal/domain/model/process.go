package model

// Статусы судебного процесса (значения backend).
const (
	// StatusActive — процесс в работе (значение по умолчанию при создании).
	StatusActive = "ativo"
	// StatusConcluded — процесс завершён.
	StatusConcluded = "concluído"
	// StatusArchived — процесс в архиве.
	StatusArchived = "arquivado"
)

// Process — судебный процесс (ответ GET /processes/).
// Все даты — строки в формате ISO (yyyy-mm-dd), как их отдаёт backend.
type Process struct {
	ID            int64  `json:"id"`
	ProcessNumber string `json:"process_number"`
	LawyerID      int64  `json:"lawyer_id"`
	ClientID      int64  `json:"client_id"`
	// EntryDate — дата поступления дела.
	EntryDate string `json:"entry_date"`
	// DeliveryDeadline — внутренний срок сдачи.
	DeliveryDeadline string `json:"delivery_deadline"`
	// FatalDeadline — процессуальный (фатальный) срок.
	FatalDeadline string `json:"fatal_deadline"`
	Status        string `json:"status"`
	// ActionType — тип иска (опционально).
	ActionType *string `json:"action_type"`
	// CompletionDate — дата фактического завершения (опционально).
	CompletionDate *string `json:"completion_date"`
}

// ProcessInput — тело запроса создания/обновления процесса.
type ProcessInput struct {
	ProcessNumber    string  `json:"process_number"`
	LawyerID         int64   `json:"lawyer_id"`
	ClientID         int64   `json:"client_id"`
	EntryDate        string  `json:"entry_date"`
	DeliveryDeadline string  `json:"delivery_deadline"`
	FatalDeadline    string  `json:"fatal_deadline"`
	Status           string  `json:"status,omitempty"`
	ActionType       *string `json:"action_type,omitempty"`
	CompletionDate   *string `json:"completion_date,omitempty"`
}

// ProcessFilters — параметры фильтрации списка процессов.
// nil-поля не попадают в query string.
type ProcessFilters struct {
	ClientID   *int64
	LawyerID   *int64
	ActionType *string
	Status     *string
	// FatalDeadlineFrom/To — диапазон фатального срока (ISO-даты).
	FatalDeadlineFrom *string
	FatalDeadlineTo   *string
}
