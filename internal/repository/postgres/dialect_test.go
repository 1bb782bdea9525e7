package postgres

import (
	"testing"
	"time"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{name: "sqlite untouched", dialect: DialectSQLite, query: "SELECT * FROM alerts WHERE id = ? AND status = ?", want: "SELECT * FROM alerts WHERE id = ? AND status = ?"},
		{name: "postgres numbered", dialect: DialectPostgres, query: "SELECT * FROM alerts WHERE id = ? AND status = ?", want: "SELECT * FROM alerts WHERE id = $1 AND status = $2"},
		{name: "postgres no placeholders", dialect: DialectPostgres, query: "SELECT 1", want: "SELECT 1"},
		{name: "postgres many", dialect: DialectPostgres, query: placeholders(11), want: "$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialect_ForUpdate(t *testing.T) {
	if got := DialectPostgres.ForUpdate(); got != " FOR UPDATE" {
		t.Errorf("postgres ForUpdate() = %q", got)
	}
	if got := DialectSQLite.ForUpdate(); got != "" {
		t.Errorf("sqlite ForUpdate() = %q", got)
	}
}

func TestTimeFormat_SortsLexically(t *testing.T) {
	early := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	late := early.Add(1500 * time.Millisecond)

	a, b := formatTime(early), formatTime(late)
	if len(a) != len(b) {
		t.Fatalf("formatted lengths differ: %q vs %q", a, b)
	}
	if a >= b {
		t.Errorf("formatTime order broken: %q >= %q", a, b)
	}
	if !parseTime(b).Equal(late) {
		t.Errorf("parseTime(%q) = %v, want %v", b, parseTime(b), late)
	}

	zone := time.FixedZone("PHT", 8*3600)
	if got := formatTime(early.In(zone)); got != a {
		t.Errorf("formatTime ignores zone: %q vs %q", got, a)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?, ?, ?" {
		t.Errorf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Errorf("placeholders(0) = %q", got)
	}
}
