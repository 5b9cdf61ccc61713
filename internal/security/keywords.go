package security

// reservedKeywordList carries the T-SQL/ANSI reserved keyword and common
// built-in function name set from original_source/src/security/identifiers.rs
// (SQL_RESERVED_KEYWORDS), used only to emit a warning — never an error —
// when an identifier is substituted unescaped.
var reservedKeywordList = []string{
	"ADD", "ALL", "ALTER", "AND", "ANY", "AS", "ASC", "AUTHORIZATION", "BACKUP",
	"BEGIN", "BETWEEN", "BREAK", "BROWSE", "BULK", "BY", "CASCADE", "CASE",
	"CHECK", "CHECKPOINT", "CLOSE", "CLUSTERED", "COALESCE", "COLLATE",
	"COLUMN", "COMMIT", "COMPUTE", "CONSTRAINT", "CONTAINS", "CONTAINSTABLE",
	"CONTINUE", "CONVERT", "CREATE", "CROSS", "CURRENT", "CURRENT_DATE",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR", "DATABASE",
	"DBCC", "DEALLOCATE", "DECLARE", "DEFAULT", "DELETE", "DENY", "DESC",
	"DISK", "DISTINCT", "DISTRIBUTED", "DOUBLE", "DROP", "DUMP", "ELSE",
	"END", "ERRLVL", "ESCAPE", "EXCEPT", "EXEC", "EXECUTE", "EXISTS", "EXIT",
	"EXTERNAL", "FETCH", "FILE", "FILLFACTOR", "FOR", "FOREIGN", "FREETEXT",
	"FREETEXTTABLE", "FROM", "FULL", "FUNCTION", "GOTO", "GRANT", "GROUP",
	"HAVING", "HOLDLOCK", "IDENTITY", "IDENTITY_INSERT", "IDENTITYCOL", "IF",
	"IN", "INDEX", "INNER", "INSERT", "INTERSECT", "INTO", "IS", "JOIN",
	"KEY", "KILL", "LEFT", "LIKE", "LINENO", "LOAD", "MERGE", "NATIONAL",
	"NOCHECK", "NONCLUSTERED", "NOT", "NULL", "NULLIF", "OF", "OFF",
	"OFFSETS", "ON", "OPEN", "OPENDATASOURCE", "OPENQUERY", "OPENROWSET",
	"OPENXML", "OPTION", "OR", "ORDER", "OUTER", "OVER", "PERCENT", "PIVOT",
	"PLAN", "PRECISION", "PRIMARY", "PRINT", "PROC", "PROCEDURE", "PUBLIC",
	"RAISERROR", "READ", "READTEXT", "RECONFIGURE", "REFERENCES",
	"REPLICATION", "RESTORE", "RESTRICT", "RETURN", "REVERT", "REVOKE",
	"RIGHT", "ROLLBACK", "ROWCOUNT", "ROWGUIDCOL", "RULE", "SAVE", "SCHEMA",
	"SECURITYAUDIT", "SELECT", "SEMANTICKEYPHRASETABLE",
	"SEMANTICSIMILARITYDETAILSTABLE", "SEMANTICSIMILARITYTABLE",
	"SESSION_USER", "SET", "SETUSER", "SHUTDOWN", "SOME", "STATISTICS",
	"SYSTEM_USER", "TABLE", "TABLESAMPLE", "TEXTSIZE", "THEN", "TO", "TOP",
	"TRAN", "TRANSACTION", "TRIGGER", "TRUNCATE", "TRY_CONVERT", "TSEQUAL",
	"UNION", "UNIQUE", "UNPIVOT", "UPDATE", "UPDATETEXT", "USE", "USER",
	"VALUES", "VARYING", "VIEW", "WAITFOR", "WHEN", "WHERE", "WHILE", "WITH",
	"WRITETEXT",
	// ANSI SQL reserved words not already covered above.
	"ABSOLUTE", "ACTION", "ALLOCATE", "ARE", "ASSERTION", "AT", "BIT",
	"BIT_LENGTH", "BOTH", "CASCADED", "CATALOG", "CHAR", "CHARACTER",
	"CHAR_LENGTH", "CHARACTER_LENGTH", "COLLATION", "CONNECT", "CONNECTION",
	"CONSTRAINTS", "CORRESPONDING", "COUNT", "DATE", "DAY", "DEC", "DECIMAL",
	"DEFERRABLE", "DEFERRED", "DESCRIBE", "DESCRIPTOR", "DIAGNOSTICS",
	"DISCONNECT", "DOMAIN", "EXCEPTION", "FALSE", "FIRST", "FLOAT", "FOUND",
	"GET", "GLOBAL", "GO", "IMMEDIATE", "INDICATOR", "INITIALLY", "INPUT",
	"INSENSITIVE", "INT", "INTEGER", "INTERVAL", "ISOLATION", "LANGUAGE",
	"LAST", "LEADING", "LEVEL", "LOCAL", "LOWER", "MATCH", "MAX", "MIN",
	"MINUTE", "MODULE", "MONTH", "NAMES", "NATURAL", "NCHAR", "NEXT", "NO",
	"NUMERIC", "OCTET_LENGTH", "ONLY", "OUTPUT", "OVERLAPS", "PAD", "PARTIAL",
	"PASCAL", "POSITION", "PREPARE", "PRESERVE", "PRIOR", "PRIVILEGES",
	"REAL", "RELATIVE", "ROWS", "SCROLL", "SECOND", "SECTION", "SESSION",
	"SIZE", "SMALLINT", "SPACE", "SQL", "SQLCA", "SQLCODE", "SQLERROR",
	"SQLSTATE", "SQLWARNING", "SUBSTRING", "SUM", "TEMPORARY", "TIME",
	"TIMESTAMP", "TIMEZONE_HOUR", "TIMEZONE_MINUTE", "TRAILING", "TRANSLATE",
	"TRANSLATION", "TRUE", "UNKNOWN", "UPPER", "USAGE", "USING", "VALUE",
	"VARCHAR", "WHENEVER", "WORK", "WRITE", "ZONE",
	// Common built-in function names, also carried over from the source's
	// reserved-keyword registry (it treats these as warn-worthy too).
	"GETDATE", "NEWID", "CAST", "ISNULL", "OBJECT_ID", "COL_LENGTH",
	"DATALENGTH", "DATEADD", "DATEDIFF", "DATEPART", "DATENAME",
	"GETUTCDATE", "SYSDATETIME", "SCOPE_IDENTITY", "ROW_NUMBER", "RANK",
	"DENSE_RANK", "NTILE", "LEN", "REPLACE", "STUFF", "CHARINDEX",
	"PATINDEX", "LTRIM", "RTRIM", "REVERSE", "SOUNDEX", "DIFFERENCE",
	"QUOTENAME", "PARSENAME", "ISNUMERIC", "ISDATE", "FORMAT", "CHOOSE",
	"IIF", "TRY_CAST", "TRY_PARSE", "PARSE", "JSON_VALUE", "JSON_QUERY",
	"OPENJSON",
}

var reservedKeywords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(reservedKeywordList))
	for _, k := range reservedKeywordList {
		m[k] = struct{}{}
	}
	return m
}()
