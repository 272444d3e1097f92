package grammar

import "github.com/aagamezl/lihtne"

// NewMariaDB returns the MariaDB grammar. It shares MySQL's quoting,
// upsert, JSON and fulltext syntax, but never supports the row-alias
// upsert form (MySQL 8.0.19+ only) or lateral joins.
func NewMariaDB(prefix string) lihtne.Grammar {
	g := NewMySQL(prefix, false).(*Grammar)
	g.D.Name = "mariadb"
	return g
}
