// Package metadata runs SQL Server catalog queries (sys.*, INFORMATION_SCHEMA)
// for schema introspection, grounded on
// original_source/src/database/metadata.rs and restyled into Go structs
// with exported fields instead of serde-tagged Rust structs.
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/dberrors"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/executor"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/security"
	"github.com/praxiomlabs/mssql-mcp-server-sub000/internal/sqltypes"
)

// DatabaseInfo describes one entry of sys.databases.
type DatabaseInfo struct {
	Name               string
	DatabaseID         int32
	CreateDate         string
	CollationName      string
	StateDesc          string
	RecoveryModelDesc  string
	CompatibilityLevel int32
}

// TableInfo describes one user table, with size estimated from allocation units.
type TableInfo struct {
	SchemaName  string
	TableName   string
	TableType   string
	RowCount    *int64
	DataSizeKB  *int64
	IndexSizeKB *int64
}

// ColumnInfo describes one column of a table or view.
type ColumnInfo struct {
	ColumnName      string
	OrdinalPosition int32
	DataType        string
	MaxLength       *int32
	Precision       *int32
	Scale           *int32
	IsNullable      bool
	DefaultValue    *string
	IsIdentity      bool
	IsComputed      bool
}

// ViewInfo describes one user view.
type ViewInfo struct {
	SchemaName  string
	ViewName    string
	Definition  *string
	IsUpdatable bool
}

// ProcedureInfo describes one stored procedure.
type ProcedureInfo struct {
	SchemaName    string
	ProcedureName string
	CreateDate    string
	ModifyDate    string
}

// ProcedureParameter describes one parameter of a stored procedure.
type ProcedureParameter struct {
	ParameterName   string
	OrdinalPosition int32
	DataType        string
	MaxLength       *int32
	Precision       *int32
	Scale           *int32
	IsOutput        bool
	HasDefault      bool
	DefaultValue    *string
}

// FunctionInfo describes one scalar, inline-table-valued, table-valued, or
// aggregate function.
type FunctionInfo struct {
	SchemaName   string
	FunctionName string
	FunctionType string
	ReturnType   *string
	CreateDate   string
	ModifyDate   string
	Definition   *string
}

// FunctionParameter describes one parameter of a function.
type FunctionParameter struct {
	ParameterName   string
	OrdinalPosition int32
	DataType        string
	MaxLength       *int32
	IsOutput        bool
}

// TriggerInfo describes one DML or DDL trigger.
type TriggerInfo struct {
	SchemaName    string
	TriggerName   string
	ParentObject  string
	TriggerType   string
	IsDisabled    bool
	TriggerEvents string
	CreateDate    string
	ModifyDate    string
	Definition    *string
}

// ServerInfo describes the connected SQL Server instance.
type ServerInfo struct {
	ProductVersion string
	ProductLevel   string
	Edition        string
	EngineEdition  int32
	ServerName     string
	IsClustered    bool
	Collation      string
}

// Queries runs catalog introspection queries against the executor, the Go
// counterpart to original_source's MetadataQueries.
type Queries struct {
	exec *executor.Executor
}

func New(exec *executor.Executor) *Queries {
	return &Queries{exec: exec}
}

// schemaLiteral validates name as a bare identifier (rejecting quotes,
// comment markers, and statement separators) and renders it as a quoted SQL
// string literal, doubling any embedded single quote as a second line of
// defense. Used for equality comparisons against catalog name columns, which
// are string literals rather than identifiers substituted into FROM/JOIN.
func schemaLiteral(name string) (string, error) {
	if err := security.ValidateIdentifier(name); err != nil {
		return "", err
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'", nil
}

func (q *Queries) query(ctx context.Context, sql string) (sqltypes.QueryResult, error) {
	return q.exec.ExecuteRaw(ctx, sql)
}

func str(row sqltypes.ResultRow, col string) string {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return ""
	}
	return v.Display()
}

func strPtr(row sqltypes.ResultRow, col string) *string {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return nil
	}
	s := v.Display()
	return &s
}

func i32(row sqltypes.ResultRow, col string) int32 {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return 0
	}
	switch v.Kind {
	case sqltypes.KindI8:
		return int32(v.I8)
	case sqltypes.KindI16:
		return int32(v.I16)
	case sqltypes.KindI32:
		return v.I32
	case sqltypes.KindI64:
		return int32(v.I64)
	}
	return 0
}

func i32Ptr(row sqltypes.ResultRow, col string) *int32 {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return nil
	}
	n := i32(row, col)
	return &n
}

func i64Ptr(row sqltypes.ResultRow, col string) *int64 {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return nil
	}
	var n int64
	switch v.Kind {
	case sqltypes.KindI8:
		n = int64(v.I8)
	case sqltypes.KindI16:
		n = int64(v.I16)
	case sqltypes.KindI32:
		n = int64(v.I32)
	case sqltypes.KindI64:
		n = v.I64
	default:
		return nil
	}
	return &n
}

func boolVal(row sqltypes.ResultRow, col string) bool {
	v, ok := row.Values[col]
	if !ok || v.IsNull() {
		return false
	}
	switch v.Kind {
	case sqltypes.KindBool:
		return v.Bool
	case sqltypes.KindI8:
		return v.I8 != 0
	case sqltypes.KindI16:
		return v.I16 != 0
	case sqltypes.KindI32:
		return v.I32 != 0
	case sqltypes.KindI64:
		return v.I64 != 0
	}
	return false
}

// GetServerInfo reports the connected instance's edition, version, and
// collation. SERVERPROPERTY returns sql_variant, so every call is cast
// explicitly to a concrete type before the driver sees it.
func (q *Queries) GetServerInfo(ctx context.Context) (ServerInfo, error) {
	const query = `
		SELECT
			CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128)) AS product_version,
			CAST(SERVERPROPERTY('ProductLevel') AS NVARCHAR(128)) AS product_level,
			CAST(SERVERPROPERTY('Edition') AS NVARCHAR(128)) AS edition,
			CAST(SERVERPROPERTY('EngineEdition') AS INT) AS engine_edition,
			@@SERVERNAME AS server_name,
			CAST(SERVERPROPERTY('IsClustered') AS INT) AS is_clustered,
			CAST(SERVERPROPERTY('Collation') AS NVARCHAR(128)) AS collation`

	result, err := q.query(ctx, query)
	if err != nil {
		return ServerInfo{}, err
	}
	if len(result.Rows) == 0 {
		return ServerInfo{}, dberrors.Internal("failed to get server info")
	}

	row := result.Rows[0]
	return ServerInfo{
		ProductVersion: str(row, "product_version"),
		ProductLevel:   str(row, "product_level"),
		Edition:        str(row, "edition"),
		EngineEdition:  i32(row, "engine_edition"),
		ServerName:     str(row, "server_name"),
		IsClustered:    boolVal(row, "is_clustered"),
		Collation:      str(row, "collation"),
	}, nil
}

// ListDatabases lists every online database on the server.
func (q *Queries) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	const query = `
		SELECT name, database_id, CONVERT(VARCHAR(23), create_date, 121) AS create_date,
			collation_name, state_desc, recovery_model_desc, compatibility_level
		FROM sys.databases
		WHERE state_desc = 'ONLINE'
		ORDER BY name`

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]DatabaseInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, DatabaseInfo{
			Name:               str(row, "name"),
			DatabaseID:         i32(row, "database_id"),
			CreateDate:         str(row, "create_date"),
			CollationName:      str(row, "collation_name"),
			StateDesc:          str(row, "state_desc"),
			RecoveryModelDesc:  str(row, "recovery_model_desc"),
			CompatibilityLevel: i32(row, "compatibility_level"),
		})
	}
	return out, nil
}

// ListSchemas lists user schemas in the current database, excluding the
// built-in guest/INFORMATION_SCHEMA/sys schemas.
func (q *Queries) ListSchemas(ctx context.Context) ([]string, error) {
	const query = `
		SELECT schema_name FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE schema_name NOT IN ('guest', 'INFORMATION_SCHEMA', 'sys')
		ORDER BY schema_name`

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, str(row, "schema_name"))
	}
	return out, nil
}

func schemaFilter(schema string) (string, error) {
	if schema == "" {
		return "", nil
	}
	lit, err := schemaLiteral(schema)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AND s.name = %s", lit), nil
}

// ListTables lists user tables, optionally restricted to one schema, with
// row/data/index size estimated from sys.partitions and sys.allocation_units.
func (q *Queries) ListTables(ctx context.Context, schema string) ([]TableInfo, error) {
	filter, err := schemaFilter(schema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.name AS schema_name, t.name AS table_name, 'TABLE' AS table_type,
			SUM(p.rows) AS row_count, SUM(a.data_pages) * 8 AS data_size_kb,
			SUM(a.used_pages - a.data_pages) * 8 AS index_size_kb
		FROM sys.tables t
		INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
		INNER JOIN sys.indexes i ON t.object_id = i.object_id
		INNER JOIN sys.partitions p ON i.object_id = p.object_id AND i.index_id = p.index_id
		INNER JOIN sys.allocation_units a ON p.partition_id = a.container_id
		WHERE t.is_ms_shipped = 0
		%s
		GROUP BY s.name, t.name
		ORDER BY s.name, t.name`, filter)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]TableInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, TableInfo{
			SchemaName:  str(row, "schema_name"),
			TableName:   str(row, "table_name"),
			TableType:   str(row, "table_type"),
			RowCount:    i64Ptr(row, "row_count"),
			DataSizeKB:  i64Ptr(row, "data_size_kb"),
			IndexSizeKB: i64Ptr(row, "index_size_kb"),
		})
	}
	return out, nil
}

// GetTableColumns lists schema.table's columns in ordinal order.
func (q *Queries) GetTableColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	schemaLit, err := schemaLiteral(schema)
	if err != nil {
		return nil, err
	}
	tableLit, err := schemaLiteral(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT c.COLUMN_NAME AS column_name, c.ORDINAL_POSITION AS ordinal_position,
			c.DATA_TYPE AS data_type, c.CHARACTER_MAXIMUM_LENGTH AS max_length,
			c.NUMERIC_PRECISION AS precision, c.NUMERIC_SCALE AS scale,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END AS is_nullable,
			c.COLUMN_DEFAULT AS default_value,
			COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity') AS is_identity,
			COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsComputed') AS is_computed
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = %s AND c.TABLE_NAME = %s
		ORDER BY c.ORDINAL_POSITION`, schemaLit, tableLit)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, ColumnInfo{
			ColumnName:      str(row, "column_name"),
			OrdinalPosition: i32(row, "ordinal_position"),
			DataType:        str(row, "data_type"),
			MaxLength:       i32Ptr(row, "max_length"),
			Precision:       i32Ptr(row, "precision"),
			Scale:           i32Ptr(row, "scale"),
			IsNullable:      boolVal(row, "is_nullable"),
			DefaultValue:    strPtr(row, "default_value"),
			IsIdentity:      boolVal(row, "is_identity"),
			IsComputed:      boolVal(row, "is_computed"),
		})
	}
	return out, nil
}

// ListViews lists user views, optionally restricted to one schema.
func (q *Queries) ListViews(ctx context.Context, schema string) ([]ViewInfo, error) {
	filter, err := schemaFilter(schema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.name AS schema_name, v.name AS view_name, m.definition AS definition,
			OBJECTPROPERTY(v.object_id, 'IsUpdatable') AS is_updatable
		FROM sys.views v
		INNER JOIN sys.schemas s ON v.schema_id = s.schema_id
		LEFT JOIN sys.sql_modules m ON v.object_id = m.object_id
		WHERE v.is_ms_shipped = 0
		%s
		ORDER BY s.name, v.name`, filter)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]ViewInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, ViewInfo{
			SchemaName:  str(row, "schema_name"),
			ViewName:    str(row, "view_name"),
			Definition:  strPtr(row, "definition"),
			IsUpdatable: boolVal(row, "is_updatable"),
		})
	}
	return out, nil
}

// ListProcedures lists user stored procedures, optionally restricted to one schema.
func (q *Queries) ListProcedures(ctx context.Context, schema string) ([]ProcedureInfo, error) {
	filter, err := schemaFilter(schema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.name AS schema_name, p.name AS procedure_name,
			CONVERT(VARCHAR(23), p.create_date, 121) AS create_date,
			CONVERT(VARCHAR(23), p.modify_date, 121) AS modify_date
		FROM sys.procedures p
		INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
		WHERE p.is_ms_shipped = 0
		%s
		ORDER BY s.name, p.name`, filter)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]ProcedureInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, ProcedureInfo{
			SchemaName:    str(row, "schema_name"),
			ProcedureName: str(row, "procedure_name"),
			CreateDate:    str(row, "create_date"),
			ModifyDate:    str(row, "modify_date"),
		})
	}
	return out, nil
}

// GetProcedureDefinition returns schema.procedure's T-SQL body, or nil if the
// procedure is not found or was created WITH ENCRYPTION.
func (q *Queries) GetProcedureDefinition(ctx context.Context, schema, procedure string) (*string, error) {
	schemaLit, err := schemaLiteral(schema)
	if err != nil {
		return nil, err
	}
	procLit, err := schemaLiteral(procedure)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT m.definition
		FROM sys.procedures p
		INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
		INNER JOIN sys.sql_modules m ON p.object_id = m.object_id
		WHERE s.name = %s AND p.name = %s`, schemaLit, procLit)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}
	return strPtr(result.Rows[0], "definition"), nil
}

// GetProcedureParameters lists schema.procedure's parameters in ordinal order.
func (q *Queries) GetProcedureParameters(ctx context.Context, schema, procedure string) ([]ProcedureParameter, error) {
	schemaLit, err := schemaLiteral(schema)
	if err != nil {
		return nil, err
	}
	procLit, err := schemaLiteral(procedure)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT par.name AS parameter_name, par.parameter_id AS ordinal_position,
			TYPE_NAME(par.user_type_id) AS data_type, par.max_length AS max_length,
			par.precision AS precision, par.scale AS scale, par.is_output AS is_output,
			par.has_default_value AS has_default, par.default_value AS default_value
		FROM sys.parameters par
		INNER JOIN sys.procedures p ON par.object_id = p.object_id
		INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
		WHERE s.name = %s AND p.name = %s
		ORDER BY par.parameter_id`, schemaLit, procLit)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]ProcedureParameter, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, ProcedureParameter{
			ParameterName:   str(row, "parameter_name"),
			OrdinalPosition: i32(row, "ordinal_position"),
			DataType:        str(row, "data_type"),
			MaxLength:       i32Ptr(row, "max_length"),
			Precision:       i32Ptr(row, "precision"),
			Scale:           i32Ptr(row, "scale"),
			IsOutput:        boolVal(row, "is_output"),
			HasDefault:      boolVal(row, "has_default"),
			DefaultValue:    strPtr(row, "default_value"),
		})
	}
	return out, nil
}

// ListFunctions lists scalar, inline-table-valued, table-valued, and
// aggregate functions, optionally restricted to one schema.
func (q *Queries) ListFunctions(ctx context.Context, schema string) ([]FunctionInfo, error) {
	filter, err := schemaFilter(schema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.name AS schema_name, o.name AS function_name,
			CASE o.type
				WHEN 'FN' THEN 'Scalar' WHEN 'IF' THEN 'Inline Table-Valued'
				WHEN 'TF' THEN 'Table-Valued' WHEN 'AF' THEN 'Aggregate' ELSE o.type
			END AS function_type,
			TYPE_NAME(ISNULL(
				(SELECT TOP 1 user_type_id FROM sys.parameters WHERE object_id = o.object_id AND parameter_id = 0),
				0
			)) AS return_type,
			CONVERT(VARCHAR(23), o.create_date, 121) AS create_date,
			CONVERT(VARCHAR(23), o.modify_date, 121) AS modify_date,
			m.definition AS definition
		FROM sys.objects o
		INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
		LEFT JOIN sys.sql_modules m ON o.object_id = m.object_id
		WHERE o.type IN ('FN', 'IF', 'TF', 'AF') AND o.is_ms_shipped = 0
		%s
		ORDER BY s.name, o.name`, filter)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, FunctionInfo{
			SchemaName:   str(row, "schema_name"),
			FunctionName: str(row, "function_name"),
			FunctionType: str(row, "function_type"),
			ReturnType:   strPtr(row, "return_type"),
			CreateDate:   str(row, "create_date"),
			ModifyDate:   str(row, "modify_date"),
			Definition:   strPtr(row, "definition"),
		})
	}
	return out, nil
}

// GetFunctionParameters lists schema.function's parameters, excluding the
// implicit return-value parameter (parameter_id = 0).
func (q *Queries) GetFunctionParameters(ctx context.Context, schema, function string) ([]FunctionParameter, error) {
	schemaLit, err := schemaLiteral(schema)
	if err != nil {
		return nil, err
	}
	fnLit, err := schemaLiteral(function)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT p.name AS parameter_name, p.parameter_id AS ordinal_position,
			TYPE_NAME(p.user_type_id) AS data_type, p.max_length AS max_length, p.is_output AS is_output
		FROM sys.parameters p
		INNER JOIN sys.objects o ON p.object_id = o.object_id
		INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
		WHERE o.type IN ('FN', 'IF', 'TF', 'AF') AND s.name = %s AND o.name = %s AND p.parameter_id > 0
		ORDER BY p.parameter_id`, schemaLit, fnLit)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionParameter, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, FunctionParameter{
			ParameterName:   str(row, "parameter_name"),
			OrdinalPosition: i32(row, "ordinal_position"),
			DataType:        str(row, "data_type"),
			MaxLength:       i32Ptr(row, "max_length"),
			IsOutput:        boolVal(row, "is_output"),
		})
	}
	return out, nil
}

// ListTriggers lists DML/DDL triggers, optionally restricted to one schema.
func (q *Queries) ListTriggers(ctx context.Context, schema string) ([]TriggerInfo, error) {
	filter, err := schemaFilter(schema)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT s.name AS schema_name, t.name AS trigger_name,
			OBJECT_NAME(t.parent_id) AS parent_object,
			CASE WHEN t.type = 'TR' THEN 'DML' ELSE 'DDL' END AS trigger_type,
			t.is_disabled AS is_disabled,
			STUFF((
				SELECT ', ' + te.type_desc FROM sys.trigger_events te
				WHERE te.object_id = t.object_id FOR XML PATH(''), TYPE
			).value('.', 'NVARCHAR(MAX)'), 1, 2, '') AS trigger_events,
			CONVERT(VARCHAR(23), t.create_date, 121) AS create_date,
			CONVERT(VARCHAR(23), t.modify_date, 121) AS modify_date,
			m.definition AS definition
		FROM sys.triggers t
		INNER JOIN sys.objects o ON t.parent_id = o.object_id
		INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
		LEFT JOIN sys.sql_modules m ON t.object_id = m.object_id
		WHERE t.is_ms_shipped = 0
		%s
		ORDER BY s.name, t.name`, filter)

	result, err := q.query(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]TriggerInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, TriggerInfo{
			SchemaName:    str(row, "schema_name"),
			TriggerName:   str(row, "trigger_name"),
			ParentObject:  str(row, "parent_object"),
			TriggerType:   str(row, "trigger_type"),
			IsDisabled:    boolVal(row, "is_disabled"),
			TriggerEvents: str(row, "trigger_events"),
			CreateDate:    str(row, "create_date"),
			ModifyDate:    str(row, "modify_date"),
			Definition:    strPtr(row, "definition"),
		})
	}
	return out, nil
}
