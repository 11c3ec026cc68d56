// Пакет repository — репозитории сущностей поверх backend API.
// Каждый репозиторий хранит LRU-кэш id → имя (hashicorp/golang-lru
// с TTL) для разрешения ссылок между сущностями при рендеринге.
package repository

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnknownName — значение, возвращаемое при отсутствии имени в кэше.
// Показывается в таблицах вместо неразрешённой ссылки.
const UnknownName = "N/A"

// Prometheus-метрики кэшей имён.
var (
	nameCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lo_name_cache_hits_total",
		Help: "Общее количество попаданий в кэш имён сущностей.",
	}, []string{"entity"})
	nameCacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lo_name_cache_misses_total",
		Help: "Общее количество промахов кэша имён сущностей.",
	}, []string{"entity"})
)

// NameCache — LRU-кэш id → имя с автоматическим TTL.
// Каждый экземпляр UI Module держит собственный in-memory кэш.
type NameCache struct {
	cache  *expirable.LRU[int64, string]
	entity string
}

// NewNameCache создаёт кэш имён для сущности entity (лейбл метрик).
// maxSize — максимальное количество записей, ttl — время жизни записи.
func NewNameCache(entity string, maxSize int, ttl time.Duration) *NameCache {
	return &NameCache{
		cache:  expirable.NewLRU[int64, string](maxSize, nil, ttl),
		entity: entity,
	}
}

// Get возвращает имя по id. Возвращает (имя, true) при hit
// или ("", false) при miss. Обновляет Prometheus-метрики hit/miss.
func (nc *NameCache) Get(id int64) (string, bool) {
	name, ok := nc.cache.Get(id)
	if ok {
		nameCacheHitsTotal.WithLabelValues(nc.entity).Inc()
		return name, true
	}
	nameCacheMissesTotal.WithLabelValues(nc.entity).Inc()
	return "", false
}

// Set добавляет или обновляет запись в кэше.
func (nc *NameCache) Set(id int64, name string) {
	nc.cache.Add(id, name)
}

// Delete удаляет запись из кэша (инвалидация при удалении сущности).
func (nc *NameCache) Delete(id int64) {
	nc.cache.Remove(id)
}
