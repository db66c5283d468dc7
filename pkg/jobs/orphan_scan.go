package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
	"github.com/vitrine-motors/vitrine-api/pkg/tools"
)

// ScheduleOrphanScan sets up a cron job that reports storage objects without
// a referencing image row every day. It reports only; nothing is deleted.
func ScheduleOrphanScan(ctx context.Context, svc *services.VehicleService) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc("@daily", func() {
		tools.Dispatch(context.Background(), "orphan_scan", func(ctx context.Context) error {
			return svc.ScanOrphans(ctx)
		})
	})
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c
}
