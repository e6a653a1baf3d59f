package models

const (
	StatusScheduled  = "scheduled"
	StatusStageOne   = "stageOne"
	StatusStageTwo   = "stageTwo"
	StatusStageThree = "stageThree"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	// DefaultRolloverHour час, с которого начинается рабочий день мойки
	DefaultRolloverHour = 6

	// DefaultStateTTL время жизни состояния оператора
	DefaultStateTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultCatalogCacheTTL время жизни кэша каталогов в Redis
	DefaultCatalogCacheTTL = 30 * 60 // 30 минут в секундах

	// RateLimitRequests количество запросов оператора в окне
	RateLimitRequests = 60

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах

	// WorkerQueueSize размер очереди воркера синхронизации
	WorkerQueueSize = 256
)
