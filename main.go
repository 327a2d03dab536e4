package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/asaidimu/go-matchsql/config"
	"github.com/asaidimu/go-matchsql/core/match"
	"github.com/asaidimu/go-matchsql/core/persistence"
	"github.com/asaidimu/go-matchsql/core/query"
	"github.com/asaidimu/go-matchsql/core/schema"
	"github.com/asaidimu/go-matchsql/sqlite"
	"github.com/asaidimu/go-matchsql/utils"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const jobSchemaJSON = `{
	"name": "jobs",
	"alias": "j",
	"version": "1.0.0",
	"description": "Billable jobs",
	"fields": [
		{"name": "id", "type": "integer", "description": "Unique identifier for the job"},
		{"name": "name", "type": "string", "required": true},
		{"name": "rate", "type": "decimal", "required": true, "default": 0}
	],
	"indexes": [
		{"name": "pk_job_id", "fields": ["id"], "type": "primary"},
		{"name": "idx_job_name", "fields": ["name"], "type": "normal"}
	]
}`

type job struct {
	ID   schema.Id `db:"id"`
	Name string    `db:"name"`
	Rate float64   `db:"rate"`
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, dialect, err := cfg.Open(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			log.Printf("Error closing database connection: %v", cErr)
		}
		fmt.Println("Database connection closed.")
	}()

	jobs, err := schema.ParseSchemaDefinition([]byte(jobSchemaJSON))
	if err != nil {
		log.Fatalf("Failed to parse job schema: %v", err)
	}

	if cfg.Driver == config.DriverSQLite {
		mapper := sqlite.NewMapper(&sqlite.MapperOptions{TablePrefix: cfg.TablePrefix, IfNotExists: true, CreateIndexes: true})
		if err := mapper.CreateTable(ctx, db, jobs); err != nil {
			log.Fatalf("Failed to create table 'jobs': %v", err)
		}
		fmt.Println("'jobs' table created successfully.")
	}

	mutator, err := persistence.NewMutator(dialect, logger, cfg.MutatorOptions())
	if err != nil {
		log.Fatalf("Failed to initialize mutator: %v", err)
	}

	for _, eventType := range []persistence.MutationEventType{persistence.BatchDeleteSuccess, persistence.BatchUpdateSuccess} {
		mutator.RegisterSubscription(persistence.RegisterSubscriptionOptions{
			Event: eventType,
			Callback: func(ctx context.Context, event persistence.MutationEvent) error {
				fmt.Printf("Batch %s on '%s' affected %d rows\n", event.Operation, event.Table, *event.RowsAffected)
				return nil
			},
		})
	}

	fmt.Println("Inserting sample data...")
	seed := []job{{1, "Design", 80}, {2, "Build", 95}, {3, "Review", 60}, {4, "Support", 45}, {5, "Audit", 120}}
	if err := insertJobs(ctx, db, dialect, cfg.TablePrefix+jobs.TableName(), jobs.Columns(), seed); err != nil {
		log.Fatalf("Failed to insert sample data: %v", err)
	}

	if err := mutator.Delete(ctx, db, jobs, []schema.Id{2, 4}); err != nil {
		log.Fatalf("Failed to delete jobs: %v", err)
	}

	changes := []job{{1, "Design", 85}, {3, "Code review", 70}}
	row, err := utils.Rows(changes, jobs.Columns())
	if err != nil {
		log.Fatalf("Failed to read changes: %v", err)
	}
	if err := schema.NewValidator(jobs).ValidateRows(len(changes), row); err != nil {
		log.Fatalf("Invalid changes: %v", err)
	}

	err = persistence.Transact(ctx, db, func(tx persistence.Transaction) error {
		return mutator.Update(ctx, tx, jobs, func(b *query.Builder) {
			b.PushTypedValues(jobs, len(changes), row)
		})
	})
	if err != nil {
		log.Fatalf("Failed to update jobs: %v", err)
	}

	n, err := mutator.DeleteWhere(ctx, db, jobs, query.Condition{Column: "rate", Match: match.GreaterThan{Value: 100}})
	if err != nil {
		log.Fatalf("Failed to delete expensive jobs: %v", err)
	}
	logger.Info("Removed expensive jobs", zap.Int64("rows", n))

	if err := printJobs(ctx, db, cfg.TablePrefix+jobs.TableName()); err != nil {
		log.Fatalf("Failed to read jobs: %v", err)
	}
}

// insertJobs writes rows with one multi-row INSERT.
func insertJobs(ctx context.Context, db *sql.DB, dialect query.Dialect, table string, columns []string, rows []job) error {
	row, err := utils.Rows(rows, columns)
	if err != nil {
		return err
	}
	b := query.NewBuilder(dialect, "INSERT INTO "+table+" (")
	b.PushColumns(columns).Push(") ").PushValues(len(rows), row)
	_, err = db.ExecContext(ctx, b.SQL(), b.Args()...)
	return err
}

func printJobs(ctx context.Context, db *sql.DB, table string) error {
	rows, err := db.QueryContext(ctx, "SELECT id, name, rate FROM "+table+" ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Println("-------------------------------------------")
	fmt.Printf("%-10s %-20s %-10s\n", "ID", "Name", "Rate")
	fmt.Println("-------------------------------------------")
	for rows.Next() {
		var j job
		if err := rows.Scan(&j.ID, &j.Name, &j.Rate); err != nil {
			return err
		}
		fmt.Printf("%-10d %-20s %-10.2f\n", j.ID, j.Name, j.Rate)
	}
	fmt.Println("-------------------------------------------")
	return rows.Err()
}
