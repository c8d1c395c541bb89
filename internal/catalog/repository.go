package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/query"
	"github.com/trackerzenith/docpipe/pkg/repository"
)

var categoryProjection = query.
	NewProjectionMap("public", "categories", "c").
	Project("id", "ID").
	Project("name", "Name").
	Project("type", "Type")

var paymentMethodProjection = query.
	NewProjectionMap("public", "payment_methods", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("user_id IS NULL", "Global")

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a catalog repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "catalog"),
	}
}

func (r *repo) Options(ctx context.Context, userID string) (*Options, error) {
	categories, err := repository.QueryMany(
		ctx, r.db,
		visibleTo(categoryProjection, "Type", "Name"),
		[]any{userID},
		scanCategory,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}

	methods, err := repository.QueryMany(
		ctx, r.db,
		visibleTo(paymentMethodProjection, "Name"),
		[]any{userID},
		scanPaymentMethod,
	)
	if err != nil {
		return nil, fmt.Errorf("query payment methods: %w", err)
	}

	r.logger.Debug(
		"options loaded",
		"user_id", userID,
		"categories", len(categories),
		"payment_methods", len(methods),
	)

	return &Options{Categories: categories, PaymentMethods: methods}, nil
}

// visibleTo selects the rows shared by every user plus those owned by $1.
func visibleTo(p *query.ProjectionMap, orderBy ...string) string {
	owner := p.Alias() + ".user_id"

	order := make([]string, len(orderBy))
	for i, field := range orderBy {
		order[i] = p.Column(field)
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NULL OR %s = $1 ORDER BY %s",
		p.Columns(),
		p.Table(),
		owner, owner,
		strings.Join(order, ", "),
	)
}

func scanCategory(s repository.Scanner) (Category, error) {
	var c Category
	err := s.Scan(&c.ID, &c.Name, &c.Type)
	return c, err
}

func scanPaymentMethod(s repository.Scanner) (PaymentMethod, error) {
	var m PaymentMethod
	err := s.Scan(&m.ID, &m.Name, &m.Global)
	return m, err
}
