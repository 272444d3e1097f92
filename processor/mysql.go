package processor

import "github.com/aagamezl/lihtne"

// MySQL adds the nullable-column coercion spec.md §4.3 documents for
// MySQL's information_schema-shaped result sets: a "Null" column
// carrying the literal strings "YES"/"NO" is coerced to a bool,
// leaving every other column untouched.
type MySQL struct {
	Default
}

// NewMySQL returns the MySQL Processor.
func NewMySQL() *MySQL { return &MySQL{} }

func (p *MySQL) ProcessSelect(b *lihtne.Builder, rows []lihtne.Row) []lihtne.Row {
	for _, row := range rows {
		v, ok := row["Null"]
		if !ok {
			continue
		}
		switch v {
		case "YES":
			row["Null"] = true
		case "NO":
			row["Null"] = false
		}
	}
	return rows
}
