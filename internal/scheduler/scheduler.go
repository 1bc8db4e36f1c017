// Package scheduler runs the daily queue cutover.  At local midnight every
// active queue is reset to inactive, one by one, independent of pause
// state, a blunt daily cutover rather than per-queue expiry.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/walkin-queue/internal/engine"
)

// Start registers the midnight reset job and starts the cron runner.  The
// returned cron can be stopped on shutdown.
func Start(eng *engine.Engine) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		count, err := eng.ResetActiveQueues(ctx)
		if err != nil {
			log.Printf("scheduler: reset active queues: %v", err)
			return
		}
		log.Printf("scheduler: reset %d active queues", count)
	})
	if err != nil {
		log.Printf("scheduler: failed to register reset job: %v", err)
	}
	c.Start()
	return c
}
