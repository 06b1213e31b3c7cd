// Package pggateway binds the gateway contract to a GORM-managed SQL
// database, publishing realtime change events through a Broker after each
// committed mutation.
package pggateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/metrics"
)

type Gateway struct {
	db      *gorm.DB
	broker  gateway.Broker
	logg    *logger.Logger
	metrics *metrics.GatewayMetrics
}

// New builds a SQL-backed gateway. The broker and metrics are optional;
// without a broker mutations still succeed but emit no realtime events.
func New(db *gorm.DB, broker gateway.Broker, logg *logger.Logger, m *metrics.GatewayMetrics) (*Gateway, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInternal, "gorm connection required")
	}
	return &Gateway{db: db, broker: broker, logg: logg, metrics: m}, nil
}

func (g *Gateway) Select(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error) {
	start := time.Now()
	rows, err := g.selectRows(ctx, table, columns, filter, opts)
	g.metrics.ObserveCall(table, "select", err, time.Since(start))
	return rows, err
}

func (g *Gateway) selectRows(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error) {
	query := g.db.WithContext(ctx).Table(table)
	if len(columns) > 0 {
		query = query.Select(columns)
	}
	query, err := applyFilter(query, filter)
	if err != nil {
		return nil, err
	}
	if opts.OrderBy != "" {
		direction := "ASC"
		if opts.Desc {
			direction = "DESC"
		}
		query = query.Order(fmt.Sprintf("%s %s", opts.OrderBy, direction))
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var raw []map[string]any
	if err := query.Find(&raw).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "select "+table)
	}

	rows := make([]gateway.Row, len(raw))
	for i, r := range raw {
		rows[i] = gateway.Row(r)
	}
	return rows, nil
}

func (g *Gateway) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	start := time.Now()
	inserted, err := g.insertRow(ctx, table, row)
	g.metrics.ObserveCall(table, "insert", err, time.Since(start))
	return inserted, err
}

func (g *Gateway) insertRow(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	record := make(map[string]any, len(row)+2)
	for k, v := range row {
		record[k] = v
	}
	if _, ok := record["id"]; !ok && table != "conversation_participants" {
		record["id"] = uuid.NewString()
	}
	if _, ok := record["created_at"]; !ok {
		record["created_at"] = time.Now().UTC()
	}

	if err := g.db.WithContext(ctx).Table(table).Create(record).Error; err != nil {
		if errors.IsUniqueViolation(err, "") {
			return nil, errors.Wrap(errors.CodeConflict, err, "insert "+table)
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "insert "+table)
	}

	inserted := gateway.Row(record)
	g.publish(ctx, table, gateway.Event{Kind: gateway.EventInsert, Table: table, Row: inserted})
	return inserted, nil
}

func (g *Gateway) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) ([]gateway.Row, error) {
	start := time.Now()
	rows, err := g.updateRows(ctx, table, patch, filter)
	g.metrics.ObserveCall(table, "update", err, time.Since(start))
	return rows, err
}

func (g *Gateway) updateRows(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) ([]gateway.Row, error) {
	// Resolve target ids first so the re-read works even when the patch
	// moves rows out of the filter (status transitions do exactly that).
	matched, err := g.selectRows(ctx, table, nil, filter, gateway.Options{})
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(matched))
	for _, row := range matched {
		if id, ok := row["id"]; ok && id != nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.CodeInternal, "update requires id column on "+table)
	}

	query, err := applyFilter(g.db.WithContext(ctx).Table(table), gateway.In("id", ids...))
	if err != nil {
		return nil, err
	}
	if err := query.Updates(map[string]any(patch)).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "update "+table)
	}

	updated, err := g.selectRows(ctx, table, nil, gateway.In("id", ids...), gateway.Options{})
	if err != nil {
		return nil, err
	}
	for _, row := range updated {
		g.publish(ctx, table, gateway.Event{Kind: gateway.EventUpdate, Table: table, Row: row})
	}
	return updated, nil
}

func (g *Gateway) Delete(ctx context.Context, table string, filter gateway.Filter) error {
	start := time.Now()
	err := g.deleteRows(ctx, table, filter)
	g.metrics.ObserveCall(table, "delete", err, time.Since(start))
	return err
}

func (g *Gateway) deleteRows(ctx context.Context, table string, filter gateway.Filter) error {
	removed, err := g.selectRows(ctx, table, nil, filter, gateway.Options{})
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return nil
	}

	clause, args, err := buildClause(filter)
	if err != nil {
		return err
	}
	if clause == "" {
		return errors.New(errors.CodeInternal, "refusing unfiltered delete on "+table)
	}
	if err := g.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE "+clause, args...).Error; err != nil {
		return errors.Wrap(errors.CodeDependency, err, "delete "+table)
	}

	for _, row := range removed {
		g.publish(ctx, table, gateway.Event{Kind: gateway.EventDelete, Table: table, Row: row})
	}
	return nil
}

func (g *Gateway) Subscribe(table string, filter gateway.Filter, handler gateway.Handler) (gateway.Handle, error) {
	if g.broker == nil {
		return nil, errors.New(errors.CodeInternal, "realtime broker not configured")
	}
	return g.broker.Subscribe(table, func(ev gateway.Event) {
		g.metrics.IncEvent(table, string(ev.Kind))
		if filter.Matches(ev.Row) {
			handler(ev)
		}
	})
}

func (g *Gateway) publish(ctx context.Context, table string, event gateway.Event) {
	if g.broker == nil {
		return
	}
	if err := g.broker.Publish(ctx, table, event); err != nil && g.logg != nil {
		g.logg.Error(g.logg.WithTable(ctx, table), "realtime publish failed", err)
	}
}

// applyFilter translates the filter tree into a WHERE clause.
func applyFilter(query *gorm.DB, filter gateway.Filter) (*gorm.DB, error) {
	clause, args, err := buildClause(filter)
	if err != nil {
		return nil, err
	}
	if clause == "" {
		return query, nil
	}
	return query.Where(clause, args...), nil
}

func buildClause(filter gateway.Filter) (string, []any, error) {
	switch filter.Op {
	case gateway.OpNone:
		return "", nil, nil
	case gateway.OpEq:
		return filter.Column + " = ?", []any{filter.Value}, nil
	case gateway.OpIn:
		if len(filter.Values) == 0 {
			// empty set matches nothing
			return "1 = 0", nil, nil
		}
		return filter.Column + " IN ?", []any{filter.Values}, nil
	case gateway.OpAnd, gateway.OpOr:
		joiner := " AND "
		if filter.Op == gateway.OpOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(filter.Parts))
		args := []any{}
		for _, part := range filter.Parts {
			clause, partArgs, err := buildClause(part)
			if err != nil {
				return "", nil, err
			}
			if clause == "" {
				continue
			}
			parts = append(parts, "("+clause+")")
			args = append(args, partArgs...)
		}
		if len(parts) == 0 {
			return "", nil, nil
		}
		return strings.Join(parts, joiner), args, nil
	case gateway.OpNot:
		if len(filter.Parts) != 1 {
			return "", nil, errors.New(errors.CodeInternal, "not filter requires exactly one part")
		}
		clause, args, err := buildClause(filter.Parts[0])
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			return "1 = 0", nil, nil
		}
		return "NOT (" + clause + ")", args, nil
	default:
		return "", nil, errors.New(errors.CodeInternal, fmt.Sprintf("unsupported filter op %q", filter.Op))
	}
}
