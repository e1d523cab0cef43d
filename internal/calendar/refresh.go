package calendar

import (
	"context"
	"errors"
	"fmt"

	"nofusscal/internal/ics"
	appLog "nofusscal/internal/log"
	"nofusscal/internal/model"
)

// Importer turns a subscription source into subset components.
// *ics.Fetcher implements it.
type Importer interface {
	Import(ctx context.Context, src ics.Source) ([]ics.Component, error)
}

// RefreshSubscriptions re-imports every source and swaps its layer in. A
// failing source keeps its previous layer; the failures are joined into the
// returned error.
func (c *Calendar) RefreshSubscriptions(ctx context.Context, imp Importer, sources []ics.Source) error {
	var errs []error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		components, err := imp.Import(ctx, src)
		if err != nil {
			appLog.Error("calendar: subscription refresh failed", err, "id", src.ID)
			errs = append(errs, fmt.Errorf("subscription %s: %w", src.ID, err))
			continue
		}
		events, skipped := model.Build(components)
		c.SetSubscription(src.ID, events)
		appLog.Info("calendar: subscription refreshed", "id", src.ID, "events", len(events), "skipped", len(skipped))
	}
	return errors.Join(errs...)
}
