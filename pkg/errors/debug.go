package errors

import (
	stdErrors "errors"
	"strings"

	"github.com/jackc/pgconn"
)

// DebugDump captures the layered view of an error for log output,
// including Postgres diagnostics when a pg error is in the chain.
type DebugDump struct {
	TopMessage   string   `json:"top_message"`
	Code         Code     `json:"code,omitempty"`
	Chain        []string `json:"chain,omitempty"`
	PGCode       string   `json:"pg_code,omitempty"`
	PGMessage    string   `json:"pg_message,omitempty"`
	PGDetail     string   `json:"pg_detail,omitempty"`
	PGTable      string   `json:"pg_table,omitempty"`
	PGColumn     string   `json:"pg_column,omitempty"`
	PGConstraint string   `json:"pg_constraint,omitempty"`
}

func Dump(err error) DebugDump {
	dump := DebugDump{}
	if err == nil {
		return dump
	}
	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}
	for cur := err; cur != nil; cur = stdErrors.Unwrap(cur) {
		msg := cur.Error()
		if n := len(dump.Chain); n == 0 || dump.Chain[n-1] != msg {
			dump.Chain = append(dump.Chain, msg)
		}
	}
	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		dump.PGCode = pgErr.Code
		dump.PGMessage = pgErr.Message
		dump.PGDetail = pgErr.Detail
		dump.PGTable = pgErr.TableName
		dump.PGColumn = pgErr.ColumnName
		dump.PGConstraint = pgErr.ConstraintName
	}
	return dump
}

func (d DebugDump) Summary() string {
	parts := make([]string, 0, 3)
	if d.Code != "" {
		parts = append(parts, string(d.Code))
	}
	if d.TopMessage != "" {
		parts = append(parts, d.TopMessage)
	}
	if d.PGCode != "" {
		parts = append(parts, "pg="+d.PGCode)
	}
	return strings.Join(parts, " | ")
}
