package query

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-matchsql/core/match"
	"go.uber.org/zap"
)

// Row is a single record keyed by column name.
type Row map[string]any

// DataProcessor applies conditions to rows held in memory, with the same
// results the conditions give when compiled into a WHERE clause.
type DataProcessor struct {
	logger *zap.Logger
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataProcessor{logger: logger}
}

// ProcessRows returns the rows matching every condition, in input order.
func (p *DataProcessor) ProcessRows(rows []Row, conditions []Condition) ([]Row, error) {
	var filteredRows []Row
	for i, row := range rows {
		passes, err := p.Match(context.Background(), conditions, row)
		if err != nil {
			return nil, fmt.Errorf("error evaluating filter for row %d: %w", i, err)
		}
		if passes {
			filteredRows = append(filteredRows, row)
		}
	}
	p.logger.Debug("Rows remaining after filters", zap.Int("count", len(filteredRows)), zap.Int("input", len(rows)))
	return filteredRows, nil
}

// Match reports whether row satisfies every condition. A condition on a
// column the row does not hold is an error.
func (p *DataProcessor) Match(ctx context.Context, conditions []Condition, row Row) (bool, error) {
	for _, cond := range conditions {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		value, ok := row[cond.Column]
		if !ok {
			return false, fmt.Errorf("row has no column '%s'", cond.Column)
		}
		passes, err := match.Evaluate(cond.Match, value)
		if err != nil {
			return false, fmt.Errorf("column '%s': %w", cond.Column, err)
		}
		if !passes {
			return false, nil
		}
	}
	return true, nil
}
