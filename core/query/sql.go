package query

// Statement fragments. Fragments which join two parts carry their own
// surrounding spaces.
const (
	SQLAnd    = " AND "
	SQLAs     = " AS "
	SQLDelete = "DELETE"
	SQLFalse  = "FALSE"
	SQLFrom   = " FROM "
	SQLIn     = " IN "
	SQLNot    = "NOT "
	SQLOr     = " OR "
	SQLSet    = " SET "
	SQLTrue   = "TRUE"
	SQLUpdate = "UPDATE "
	SQLValues = "VALUES "
	SQLWhere  = " WHERE "
	SQLWith   = "WITH "
)
