package repo

import "tg-channel-scheduler/internal/domain"

// Store объединяет репозитории, которые нужны сервисам бота и планировщику.
type Store interface {
	domain.ChannelRepo
	domain.PostRepo
	domain.ScheduleRepo
	domain.StatsRepo
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
