package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/markethours"
)

// RunScheduled runs the daily pipeline after every NSE close until ctx is
// cancelled. With runNow an immediate run happens first. Run errors are
// logged and do not stop the schedule.
func (s *Service) RunScheduled(ctx context.Context, runNow bool) error {
	if runNow {
		s.RunOnce(ctx)
	}
	for {
		next := markethours.NextRun(s.deps.Now(), s.cfg.RunAfterClose)
		wait := next.Sub(s.deps.Now())
		log.Printf("[pipeline] next run at %s (in %s)", next.In(markethours.IST).Format("2006-01-02 15:04 MST"), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		s.RunOnce(ctx)
	}
}
