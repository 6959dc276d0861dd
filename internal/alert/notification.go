package alert

import (
	"context"
	"fmt"

	"regional-risk-engine/internal/model"
)

// NotificationStore is implemented by stores that can persist notification
// rows.
type NotificationStore interface {
	InsertNotification(ctx context.Context, notification model.Notification) error
}

// StoreSink records alert signals as notification rows so dashboards can
// surface them without a broker in between.
type StoreSink struct {
	store NotificationStore
}

func NewStoreSink(store NotificationStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Notify(ctx context.Context, signal model.AlertSignal) error {
	title, message := composeAlert(signal)
	return s.store.InsertNotification(ctx, model.Notification{
		Region:  signal.Region,
		Type:    "risk",
		Title:   title,
		Message: message,
		Level:   signal.RiskLevel,
	})
}

func composeAlert(signal model.AlertSignal) (string, string) {
	if signal.IsAnomaly {
		return fmt.Sprintf("Disease outbreak alert in %s", signal.Region),
			fmt.Sprintf("An unusual increase in disease cases has been detected in your region. Risk score: %d. Please take precautions.", signal.RiskScore)
	}
	return fmt.Sprintf("High health risk alert for %s", signal.Region),
		fmt.Sprintf("The health risk level in your region is %s. Risk score: %d. Stay informed and take necessary precautions.", signal.RiskLevel, signal.RiskScore)
}
