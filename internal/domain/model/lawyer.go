// Пакет model — доменные модели UI Module.
// Структуры повторяют JSON-схемы backend API (юристы, клиенты, процессы).
package model

// SystemAdminOAB — номер OAB системного администратора.
const SystemAdminOAB = "00001SP"

// SystemAdminUsername — логин системного администратора.
const SystemAdminUsername = "admin"

// Lawyer — юрист (ответ GET /lawyers/).
type Lawyer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Username — логин для входа (альтернатива OAB).
	Username string `json:"username"`
	// OAB — регистрационный номер в адвокатской палате, уникальный.
	OAB   string `json:"oab"`
	Email string `json:"email"`
	// TelegramID — идентификатор Telegram для уведомлений (опционально).
	TelegramID *string `json:"telegram_id"`
}

// IsSystemAdmin сообщает, является ли юрист системным администратором.
// Единственная точка, где определён предикат администратора: запись
// с OAB системного администратора либо с логином "admin".
func (l *Lawyer) IsSystemAdmin() bool {
	return l.OAB == SystemAdminOAB || l.Username == SystemAdminUsername
}

// LawyerInput — тело запроса создания/обновления юриста.
// Password передаётся только при создании или явной смене.
type LawyerInput struct {
	Name       string  `json:"name"`
	Username   string  `json:"username,omitempty"`
	OAB        string  `json:"oab"`
	Email      string  `json:"email"`
	TelegramID *string `json:"telegram_id,omitempty"`
	Password   string  `json:"password,omitempty"`
}
