// Package notification delivers the daily signal summary to external
// channels (log, Telegram, webhooks).
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts. Always available; used when nothing else is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi sends to every backend and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const summaryTop = 5

// SummaryAlert builds the daily signal digest: UP/DOWN counts and the
// strongest calls on each side.
func SummaryAlert(recs []model.PredictionRecord, runTS time.Time) Alert {
	if len(recs) == 0 {
		return Alert{
			Level:   AlertWarning,
			Title:   "Daily signals: no predictions",
			Message: fmt.Sprintf("run at %s produced no predictions", runTS.Format("2006-01-02 15:04:05")),
		}
	}

	var ups, downs []model.PredictionRecord
	for _, r := range recs {
		if r.PredictedDirection == model.Up {
			ups = append(ups, r)
		} else {
			downs = append(downs, r)
		}
	}
	sort.SliceStable(ups, func(i, j int) bool { return ups[i].ProbabilityUp > ups[j].ProbabilityUp })
	sort.SliceStable(downs, func(i, j int) bool { return downs[i].ProbabilityUp < downs[j].ProbabilityUp })

	var b strings.Builder
	fmt.Fprintf(&b, "%d instruments: %d UP, %d DOWN\n", len(recs), len(ups), len(downs))
	writeSide(&b, "UP", ups)
	writeSide(&b, "DOWN", downs)

	return Alert{
		Level:   AlertInfo,
		Title:   "Daily signals for " + recs[0].Date.Format(model.DateLayout),
		Message: strings.TrimRight(b.String(), "\n"),
	}
}

func writeSide(b *strings.Builder, label string, recs []model.PredictionRecord) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(b, "Top %s:\n", label)
	for i, r := range recs {
		if i == summaryTop {
			break
		}
		fmt.Fprintf(b, "  %s %.2f (p_up %.2f)\n", r.Symbol, r.PredictedPrice, r.ProbabilityUp)
	}
}
