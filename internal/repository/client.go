package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
)

// ClientRepository — репозиторий клиентов фирмы поверх backend API.
// Кэширует имена по id для разрешения ссылок из процессов.
type ClientRepository struct {
	api    *apiclient.Client
	names  *NameCache
	logger *slog.Logger
}

// NewClientRepository создаёт репозиторий клиентов.
func NewClientRepository(api *apiclient.Client, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{
		api:    api,
		names:  NewNameCache("client", cacheSize, cacheTTL),
		logger: logger.With(slog.String("component", "repository.client")),
	}
}

// List возвращает список клиентов и наполняет кэш имён.
// Контракт ошибок тот же, что у LawyerRepository.List.
func (r *ClientRepository) List(ctx context.Context, token string) ([]model.Client, error) {
	clients, err := r.api.ListClients(ctx, token)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return nil, err
		}
		r.logger.Warn("Ошибка получения списка клиентов",
			slog.String("error", err.Error()),
		)
		return []model.Client{}, nil
	}

	for _, c := range clients {
		r.names.Set(c.ID, c.Name)
	}
	return clients, nil
}

// Get возвращает клиента по id.
func (r *ClientRepository) Get(ctx context.Context, token string, id int64) (*model.Client, error) {
	client, err := r.api.GetClient(ctx, token, id)
	if err != nil {
		return nil, err
	}
	r.names.Set(client.ID, client.Name)
	return client, nil
}

// Create создаёт клиента.
func (r *ClientRepository) Create(ctx context.Context, token string, in model.ClientInput) (*model.Client, error) {
	client, err := r.api.CreateClient(ctx, token, in)
	if err != nil {
		return nil, err
	}
	r.names.Set(client.ID, client.Name)
	return client, nil
}

// Update обновляет клиента.
func (r *ClientRepository) Update(ctx context.Context, token string, id int64, in model.ClientInput) (*model.Client, error) {
	client, err := r.api.UpdateClient(ctx, token, id, in)
	if err != nil {
		return nil, err
	}
	r.names.Set(client.ID, client.Name)
	return client, nil
}

// Delete удаляет клиента и инвалидирует кэш имени.
func (r *ClientRepository) Delete(ctx context.Context, token string, id int64) error {
	if err := r.api.DeleteClient(ctx, token, id); err != nil {
		return err
	}
	r.names.Delete(id)
	return nil
}

// IDToName возвращает имя клиента по id из кэша.
// Неизвестный id — UnknownName ("N/A").
func (r *ClientRepository) IDToName(id int64) string {
	if name, ok := r.names.Get(id); ok {
		return name
	}
	return UnknownName
}
