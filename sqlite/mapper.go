package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/go-matchsql/core/schema"
)

// dbRunner is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MapperOptions configures the DDL written by a Mapper.
type MapperOptions struct {
	// TablePrefix is prepended to every table name. It must match the prefix
	// statements are executed with.
	TablePrefix string
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE.
	IfNotExists bool
	// CreateIndexes creates the non-primary indexes of a schema along with
	// its table.
	CreateIndexes bool
}

// DefaultMapperOptions returns a set of sensible default options for the
// mapper.
func DefaultMapperOptions() *MapperOptions {
	return &MapperOptions{
		IfNotExists:   true, // Prevent errors if a table already exists.
		CreateIndexes: true, // Automatically create indexes defined in the schema.
	}
}

// Mapper maps schema definitions to SQLite tables and indexes.
type Mapper struct {
	dialect Dialect
	options *MapperOptions
}

// NewMapper creates a Mapper. nil options select DefaultMapperOptions.
func NewMapper(options *MapperOptions) *Mapper {
	if options == nil {
		options = DefaultMapperOptions()
	}
	return &Mapper{options: options}
}

// quoteIdentifier safely quotes an identifier, such as a table or column name.
func (m *Mapper) quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// getTableName constructs the full, quoted table name by applying the
// configured table prefix to the base name.
func (m *Mapper) getTableName(baseName string) string {
	return m.quoteIdentifier(m.options.TablePrefix + baseName)
}

// CreateTable creates the table described by sc, and its indexes when
// CreateIndexes is set. Run it on a *sql.Tx to create all or nothing.
func (m *Mapper) CreateTable(ctx context.Context, runner dbRunner, sc *schema.SchemaDefinition) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	stmt, err := m.CreateTableSQL(sc)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", sc.Name, err)
	}
	if _, err := runner.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
	}

	if !m.options.CreateIndexes {
		return nil
	}
	for _, index := range sc.Indexes {
		sqlIndex := m.CreateIndexSQL(sc.Name, index)
		if sqlIndex == "" {
			continue
		}
		if _, err := runner.ExecContext(ctx, sqlIndex); err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.Name, err)
		}
	}
	return nil
}

// CreateTableSQL generates the CREATE TABLE statement for sc, including
// column constraints and the primary key.
func (m *Mapper) CreateTableSQL(sc *schema.SchemaDefinition) (string, error) {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if m.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(m.getTableName(sc.Name) + " (\n")

	columns := make([]string, 0, len(sc.Fields))
	for _, field := range sc.Fields {
		columnDef, err := m.buildColumnDefinition(field)
		if err != nil {
			return "", fmt.Errorf("error on field '%s': %w", field.Name, err)
		}
		columns = append(columns, "    "+columnDef)
	}
	sb.WriteString(strings.Join(columns, ",\n"))

	keys := sc.Keys()
	quotedPKs := make([]string, len(keys))
	for i, pk := range keys {
		quotedPKs[i] = m.quoteIdentifier(pk)
	}
	sb.WriteString(",\n    PRIMARY KEY (" + strings.Join(quotedPKs, ", ") + ")")

	sb.WriteString("\n);")
	return sb.String(), nil
}

func (m *Mapper) buildColumnDefinition(field *schema.FieldDefinition) (string, error) {
	parts := []string{m.quoteIdentifier(field.Name), m.dialect.ColumnType(field.Type)}

	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		defVal, err := m.formatDefaultValue(field.Default, field.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defVal)
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " "), nil
}

// formatDefaultValue formats a default value for use in a DDL statement.
func (m *Mapper) formatDefaultValue(value any, fieldType schema.FieldType) (string, error) {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeTimestamp:
		return quoteLiteral(fmt.Sprintf("%v", value)), nil
	case schema.FieldTypeNumber, schema.FieldTypeInteger, schema.FieldTypeDecimal, schema.FieldTypeInterval:
		return fmt.Sprintf("%v", value), nil
	case schema.FieldTypeBoolean:
		if b, ok := value.(bool); ok && b {
			return "1", nil
		}
		return "0", nil
	case schema.FieldTypeObject:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("failed to marshal default value to JSON: %w", err)
		}
		return quoteLiteral(string(jsonBytes)), nil
	default:
		return "", fmt.Errorf("unsupported type for default value: %s", fieldType)
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CreateIndexSQL generates the CREATE INDEX statement for index on table.
// It returns "" for primary indexes, which are part of CREATE TABLE.
func (m *Mapper) CreateIndexSQL(table string, index schema.IndexDefinition) string {
	if index.Type == schema.IndexTypePrimary {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if (index.Unique != nil && *index.Unique) || index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	indexName := index.Name
	if indexName == "" {
		indexName = fmt.Sprintf("idx_%s%s_%s", m.options.TablePrefix, table, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(m.quoteIdentifier(indexName))
	sb.WriteString(" ON " + m.getTableName(table) + " (")

	fieldParts := make([]string, len(index.Fields))
	for i, field := range index.Fields {
		fieldParts[i] = m.quoteIdentifier(field)
	}
	sb.WriteString(strings.Join(fieldParts, ", ") + ");")
	return sb.String()
}

// DropTable drops a table if it exists.
func (m *Mapper) DropTable(ctx context.Context, runner dbRunner, table string) error {
	fullTableName := m.getTableName(table)
	if _, err := runner.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", fullTableName)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", fullTableName, err)
	}
	return nil
}

// TableExists checks if a table exists in the database.
func (m *Mapper) TableExists(ctx context.Context, runner dbRunner, table string) (bool, error) {
	var name string
	err := runner.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?;",
		m.options.TablePrefix+table,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
