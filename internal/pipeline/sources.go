// Package pipeline runs the cobranzas and receivables batch jobs stage by stage,
// leaving a metrics artifact behind for every stage that completes.
package pipeline

import (
	"context"

	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

//go:generate mockgen -source=sources.go -destination=sources_mock.go -package=pipeline
type SalesSource interface {
	Query(ctx context.Context, query string) (*tabular.Table, error)
}

type PaymentSource interface {
	ReadSheet(path, sheet string) (*tabular.Table, error)
}
