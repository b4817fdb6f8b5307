// Package settingrepo manages repository layer of payment settings.
package settingrepo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/buckholding/brokerage-api/internal/domain"
	"github.com/buckholding/brokerage-api/pkg/dbpkg"
	"github.com/buckholding/brokerage-api/pkg/errorspkg"
)

// RepoPGS facilitates payment setting repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns payment setting RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const listQuery = `
SELECT id, method, key, value FROM payment_settings
ORDER BY method, id
`

// List returns all deposit instruction rows.
func (r *RepoPGS) List(ctx context.Context) ([]domain.PaymentSetting, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.PaymentSetting{}

	for rows.Next() {
		var s domain.PaymentSetting
		if err := rows.Scan(&s.ID, &s.Method, &s.Key, &s.Value); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, s)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
