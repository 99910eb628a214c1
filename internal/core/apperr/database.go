package apperr

// DatabaseCode classifies failures of the relational store.
type DatabaseCode string

const (
	DatabaseConnectionFailed    DatabaseCode = "CONNECTION_FAILED"
	DatabaseQueryFailed         DatabaseCode = "QUERY_FAILED"
	DatabaseTransactionFailed   DatabaseCode = "TRANSACTION_FAILED"
	DatabaseConstraintViolation DatabaseCode = "CONSTRAINT_VIOLATION"
	DatabaseDuplicateEntry      DatabaseCode = "DUPLICATE_ENTRY"
	DatabaseNotFound            DatabaseCode = "NOT_FOUND"
	DatabaseDeadlock            DatabaseCode = "DEADLOCK"
	DatabaseTimeout             DatabaseCode = "TIMEOUT"
	DatabaseMigrationFailed     DatabaseCode = "MIGRATION_FAILED"
)

// DatabaseCodes lists the closed set of database codes.
var DatabaseCodes = []DatabaseCode{
	DatabaseConnectionFailed, DatabaseQueryFailed, DatabaseTransactionFailed,
	DatabaseConstraintViolation, DatabaseDuplicateEntry, DatabaseNotFound,
	DatabaseDeadlock, DatabaseTimeout, DatabaseMigrationFailed,
}

var databaseMessages = map[DatabaseCode]string{
	DatabaseConnectionFailed:    "Failed to connect to the database",
	DatabaseQueryFailed:         "Database query failed",
	DatabaseTransactionFailed:   "Database transaction failed",
	DatabaseConstraintViolation: "Database constraint violated",
	DatabaseDuplicateEntry:      "Record already exists",
	DatabaseNotFound:            "Record not found",
	DatabaseDeadlock:            "Database deadlock detected",
	DatabaseTimeout:             "Database operation timed out",
	DatabaseMigrationFailed:     "Database migration failed",
}

var databaseSeverity = map[DatabaseCode]Severity{
	DatabaseMigrationFailed:   SeverityCritical,
	DatabaseConnectionFailed:  SeverityHigh,
	DatabaseTransactionFailed: SeverityHigh,
	DatabaseDeadlock:          SeverityHigh,
	DatabaseNotFound:          SeverityLow,
}

var databaseNonRetryable = map[DatabaseCode]bool{
	DatabaseConstraintViolation: true,
	DatabaseDuplicateEntry:      true,
	DatabaseNotFound:            true,
	DatabaseMigrationFailed:     true,
}

// Valid reports whether c belongs to the database code set.
func (c DatabaseCode) Valid() bool {
	_, ok := databaseMessages[c]
	return ok
}

func (c DatabaseCode) DefaultMessage() string {
	return databaseMessages[c]
}

func (c DatabaseCode) DefaultSeverity() Severity {
	if s, ok := databaseSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

func (c DatabaseCode) DefaultRetryable() bool {
	return !databaseNonRetryable[c]
}

// DatabaseError reports a failed statement or connection.
type DatabaseError struct {
	base
	query string
	table string
}

// NewDatabaseError builds a database error. An empty code becomes QUERY_FAILED.
func NewDatabaseError(code DatabaseCode, opts ...Option) *DatabaseError {
	if code == "" {
		code = DatabaseQueryFailed
	}
	o := buildOptions(opts)
	return &DatabaseError{
		base: newBase(KindDatabase, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		query: o.query,
		table: o.table,
	}
}

func (e *DatabaseError) DatabaseCode() DatabaseCode { return DatabaseCode(e.code) }
func (e *DatabaseError) Query() string              { return e.query }
func (e *DatabaseError) Table() string              { return e.table }

func (e *DatabaseError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *DatabaseError) Record() Record {
	r := e.record()
	r.Query = e.query
	r.Table = e.table
	return r
}

func (e *DatabaseError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}
