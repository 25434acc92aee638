package clicks

import (
	"LinkPulse-Backend/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UniqueWindow скользящее окно уникальности визита для пары (ссылка, IP)
const UniqueWindow = 24 * time.Hour

// Classifier определяет уникальность визита. Флаг фиксируется в момент записи
// и никогда не пересчитывается.
type Classifier struct {
	storage repository.Storage
}

func NewClassifier(storage repository.Storage) *Classifier {
	return &Classifier{storage: storage}
}

// Classify возвращает true, если за последние 24 часа до момента at не было
// визита с этого IP по этой ссылке. Визит без пригодного IP всегда считается
// уникальным: сопоставить его с предыдущими визитами не с чем.
func (c *Classifier) Classify(ctx context.Context, linkID uuid.UUID, ipAddress *string, at time.Time) (bool, error) {
	if ipAddress == nil || *ipAddress == "" {
		return true, nil
	}

	seen, err := c.storage.HasClickSince(ctx, linkID, *ipAddress, at.Add(-UniqueWindow))
	if err != nil {
		return false, fmt.Errorf("failed to classify click: %w", err)
	}
	return !seen, nil
}
