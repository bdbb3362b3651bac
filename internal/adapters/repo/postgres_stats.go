package repo

import (
	"context"
	"time"

	"tg-channel-scheduler/internal/domain"
	"tg-channel-scheduler/internal/infra/metrics"
)

// Stats собирает агрегаты одним запросом.
func (p *Postgres) Stats(ctx context.Context) (domain.Stats, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var stats domain.Stats
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM channels),
	(SELECT count(*) FROM channels WHERE is_vip),
	(SELECT count(*) FROM channels WHERE is_banned),
	(SELECT count(*) FROM posts),
	(SELECT count(*) FROM schedules WHERE is_active)
`).Scan(&stats.TotalChannels, &stats.VIPChannels, &stats.BannedChannels, &stats.TotalPosts, &stats.ActiveSchedules)
	metrics.ObserveNetworkRequest("postgres", "stats", "all", start, err)
	if err != nil {
		return domain.Stats{}, wrapErr("статистика", err)
	}
	return stats, nil
}
