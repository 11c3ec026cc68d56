package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
)

// LawyerRepository — репозиторий юристов поверх backend API.
// Кэширует имена по id для разрешения ссылок из процессов.
type LawyerRepository struct {
	api    *apiclient.Client
	names  *NameCache
	logger *slog.Logger
}

// NewLawyerRepository создаёт репозиторий юристов.
func NewLawyerRepository(api *apiclient.Client, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *LawyerRepository {
	return &LawyerRepository{
		api:    api,
		names:  NewNameCache("lawyer", cacheSize, cacheTTL),
		logger: logger.With(slog.String("component", "repository.lawyer")),
	}
}

// List возвращает список юристов и наполняет кэш имён.
// При ErrUnauthorized ошибка возвращается вызывающему (сессия должна
// быть завершена); прочие ошибки логируются, возвращается пустой список —
// страница рендерится с пустой таблицей, а не падает.
func (r *LawyerRepository) List(ctx context.Context, token string) ([]model.Lawyer, error) {
	lawyers, err := r.api.ListLawyers(ctx, token)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, err
		}
		r.logger.Warn("Ошибка получения списка юристов",
			slog.String("error", err.Error()),
		)
		return []model.Lawyer{}, nil
	}

	for _, l := range lawyers {
		r.names.Set(l.ID, l.Name)
	}
	return lawyers, nil
}

// Get возвращает юриста по id.
func (r *LawyerRepository) Get(ctx context.Context, token string, id int64) (*model.Lawyer, error) {
	lawyer, err := r.api.GetLawyer(ctx, token, id)
	if err != nil {
		return nil, err
	}
	r.names.Set(lawyer.ID, lawyer.Name)
	return lawyer, nil
}

// Create создаёт юриста.
func (r *LawyerRepository) Create(ctx context.Context, token string, in model.LawyerInput) (*model.Lawyer, error) {
	lawyer, err := r.api.CreateLawyer(ctx, token, in)
	if err != nil {
		return nil, err
	}
	r.names.Set(lawyer.ID, lawyer.Name)
	return lawyer, nil
}

// Update обновляет юриста.
func (r *LawyerRepository) Update(ctx context.Context, token string, id int64, in model.LawyerInput) (*model.Lawyer, error) {
	lawyer, err := r.api.UpdateLawyer(ctx, token, id, in)
	if err != nil {
		return nil, err
	}
	r.names.Set(lawyer.ID, lawyer.Name)
	return lawyer, nil
}

// Delete удаляет юриста и инвалидирует кэш имени.
// Отказ backend из-за привязанных процессов возвращается как *APIError
// с исходным detail.
func (r *LawyerRepository) Delete(ctx context.Context, token string, id int64) error {
	if err := r.api.DeleteLawyer(ctx, token, id); err != nil {
		return err
	}
	r.names.Delete(id)
	return nil
}

// IDToName возвращает имя юриста по id из кэша.
// Неизвестный id — UnknownName ("N/A").
func (r *LawyerRepository) IDToName(id int64) string {
	if name, ok := r.names.Get(id); ok {
		return name
	}
	return UnknownName
}
