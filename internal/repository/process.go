package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
)

// ProcessRepository — репозиторий судебных процессов поверх backend API.
// Имена юристов и клиентов в строках процессов разрешаются через
// кэши LawyerRepository и ClientRepository, поэтому собственного
// кэша имён здесь нет.
type ProcessRepository struct {
	api    *apiclient.Client
	logger *slog.Logger
}

// NewProcessRepository создаёт репозиторий процессов.
func NewProcessRepository(api *apiclient.Client, logger *slog.Logger) *ProcessRepository {
	return &ProcessRepository{
		api:    api,
		logger: logger.With(slog.String("component", "repository.process")),
	}
}

// List возвращает список процессов с фильтрами.
// Контракт ошибок тот же, что у LawyerRepository.List.
func (r *ProcessRepository) List(ctx context.Context, token string, filters model.ProcessFilters) ([]model.Process, error) {
	processes, err := r.api.ListProcesses(ctx, token, filters)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, err
		}
		r.logger.Warn("Ошибка получения списка процессов",
			slog.String("error", err.Error()),
		)
		return []model.Process{}, nil
	}
	return processes, nil
}

// Get возвращает процесс по id.
func (r *ProcessRepository) Get(ctx context.Context, token string, id int64) (*model.Process, error) {
	return r.api.GetProcess(ctx, token, id)
}

// Create создаёт процесс. Пустой статус backend заменяет на "ativo".
func (r *ProcessRepository) Create(ctx context.Context, token string, in model.ProcessInput) (*model.Process, error) {
	return r.api.CreateProcess(ctx, token, in)
}

// Update обновляет процесс.
func (r *ProcessRepository) Update(ctx context.Context, token string, id int64, in model.ProcessInput) (*model.Process, error) {
	return r.api.UpdateProcess(ctx, token, id, in)
}

// Delete удаляет процесс.
func (r *ProcessRepository) Delete(ctx context.Context, token string, id int64) error {
	return r.api.DeleteProcess(ctx, token, id)
}
