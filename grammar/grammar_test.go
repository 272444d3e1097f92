package grammar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aagamezl/lihtne"
	"github.com/aagamezl/lihtne/processor"
)

func newBuilder(g lihtne.Grammar) *lihtne.Builder {
	return lihtne.NewBuilder(nil, g, processor.New())
}

func TestANSIBasicSelect(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").Where("id", 1)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where "id" = ?`, sql)
	assert.Equal(t, []interface{}{int64(1)}, args)
}

func TestANSITablePrefix(t *testing.T) {
	g := NewANSI("wp_")
	b := newBuilder(g).From("users").Select("id", "name")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select "id", "name" from "wp_users"`, sql)
}

func TestMySQLBacktickAlias(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("users", "u").Select("u.id", "u.name")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select `u`.`id`, `u`.`name` from `users` as `u`", sql)
}

func TestMySQLNestedWheresWithBetween(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("orders").
		Where("status", "open").
		WhereGroup(func(sub *lihtne.Builder) {
			sub.WhereBetween("total", 10, 100).OrWhere("vip", true)
		})
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `orders` where `status` = ? and (`total` between ? and ? or `vip` = ?)", sql)
	assert.Equal(t, []interface{}{"open", int64(10), int64(100), int64(1)}, args)
}

func TestEmptyWhereInCompilesToFalseLiteral(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").WhereIn("id")
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where 0 = 1`, sql)
	assert.Empty(t, args)
}

func TestEmptyWhereNotInCompilesToTrueLiteral(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").WhereNotIn("id")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where 1 = 1`, sql)
}

func TestSQLServerTopInjection(t *testing.T) {
	g := NewSQLServer("")
	b := newBuilder(g).From("users").OrderBy("id", lihtne.Asc).Limit(5)
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select top 5 * from [users] order by [id] asc`, sql)
}

func TestSQLServerOffsetFetchWithSynthesizedOrder(t *testing.T) {
	g := NewSQLServer("")
	b := newBuilder(g).From("users").Offset(10).Limit(5)
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from [users] order by (SELECT 0) offset 10 rows fetch next 5 rows only`, sql)
}

func TestSQLServerOffsetKeepsExplicitOrder(t *testing.T) {
	g := NewSQLServer("")
	b := newBuilder(g).From("users").OrderBy("name", lihtne.Asc).Offset(10)
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from [users] order by [name] asc offset 10 rows`, sql)
}

func TestSQLServerEmptyInsertDefaultValues(t *testing.T) {
	g := NewSQLServer("")
	sql, bindings, err := g.CompileInsert("users", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "insert into [users] default values", sql)
	assert.Empty(t, bindings)
}

func TestPostgresUpsert(t *testing.T) {
	g := NewPostgres("")
	sql, _, err := g.CompileUpsert(
		"users",
		[]string{"email", "name"},
		[][]lihtne.Value{{lihtne.Str("a@example.com"), lihtne.Str("Ann")}},
		[]string{"email"},
		[]lihtne.Assignment{{Column: "name"}},
	)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("email", "name") values (?, ?) on conflict ("email") do update set "name" = "excluded"."name"`, sql)
}

func TestSQLiteUpsert(t *testing.T) {
	g := NewSQLite("")
	sql, _, err := g.CompileUpsert(
		"users",
		[]string{"email", "name"},
		[][]lihtne.Value{{lihtne.Str("a@example.com"), lihtne.Str("Ann")}},
		[]string{"email"},
		[]lihtne.Assignment{{Column: "name"}},
	)
	require.NoError(t, err)
	assert.Equal(t, `insert into "users" ("email", "name") values (?, ?) on conflict("email") do update set "name" = excluded."name"`, sql)
}

func TestMySQLUpsertWithAlias(t *testing.T) {
	g := NewMySQL("", true)
	sql, _, err := g.CompileUpsert(
		"users",
		[]string{"email", "name"},
		[][]lihtne.Value{{lihtne.Str("a@example.com"), lihtne.Str("Ann")}},
		nil,
		[]lihtne.Assignment{{Column: "name"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "insert into `users` (`email`, `name`) values (?, ?) as lihtne_upsert_alias on duplicate key update `name` = `lihtne_upsert_alias`.`name`", sql)
}

func TestMySQLJSONSelectorInWhere(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("users").Where("preferences->locale", "en")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `users` where json_unquote(json_extract(`preferences`, '$.\"locale\"')) = ?", sql)
}

func TestPostgresJSONContains(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("users").WhereJSONContains("tags", "admin")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where ("tags")::jsonb @> ?`, sql)
}

func TestSQLiteJSONContains(t *testing.T) {
	g := NewSQLite("")
	b := newBuilder(g).From("users").WhereJSONContains("tags", "admin")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where exists(select 1 from json_each("tags", '$') where value is ?)`, sql)
}

func TestSQLServerDeleteWithJoinsReusesMySQLShape(t *testing.T) {
	g := NewSQLServer("")
	b := newBuilder(g).From("orders", "o").Join("customers", "o.customer_id", "=", "customers.id").Where("customers.active", false)
	sql, _, err := g.(*Grammar).CompileDelete(b.IR())
	require.NoError(t, err)
	assert.Equal(t, "delete [o] from [orders] as [o] inner join [customers] on [o].[customer_id] = [customers].[id] where [customers].[active] = ?", sql)
}

func TestANSIUpsertUnsupported(t *testing.T) {
	g := NewANSI("")
	_, _, err := g.CompileUpsert("users", []string{"id"}, [][]lihtne.Value{{lihtne.Int(1)}}, []string{"id"}, nil)
	require.Error(t, err)
}

func TestSQLServerInsertOrIgnoreUnsupported(t *testing.T) {
	g := NewSQLServer("")
	_, _, err := g.CompileInsertOrIgnore("users", []string{"id"}, [][]lihtne.Value{{lihtne.Int(1)}})
	require.Error(t, err)
}

func TestMariaDBSharesMySQLShapeButOwnName(t *testing.T) {
	g := NewMariaDB("")
	b := newBuilder(g).From("users").Select("id")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select `id` from `users`", sql)
}

func TestWhereBetweenColumns(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("events").WhereBetweenColumns("happened_at", "starts_at", "ends_at")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "events" where "happened_at" between "starts_at" and "ends_at"`, sql)
}

func TestWhereRowValues(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("t").WhereRowValues([]string{"a", "b"}, ">", []interface{}{1, 2})
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "t" where ("a", "b") > (?, ?)`, sql)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, args)
}

func TestWhereBitwise(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("flags").WhereBitwise("mask", "&", 4)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "flags" where "mask" & ?`, sql)
	assert.Equal(t, []interface{}{int64(4)}, args)
}

func TestWhereAnyOrsAcrossColumns(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").WhereAny([]string{"name", "email"}, "like", "%ann%")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where ("name" like ? or "email" like ?)`, sql)
}

func TestWhereAllAndsAcrossColumns(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").WhereAll([]string{"active", "verified"}, "=", true)
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where ("active" = ? and "verified" = ?)`, sql)
}

func TestMySQLJSONContainsKey(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("users").WhereJSONContainsKey("preferences->locale")
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `users` where json_contains_path(`preferences`, 'one', '$.\"locale\"')", sql)
	assert.Empty(t, args)
}

func TestMySQLJSONLength(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("users").WhereJSONLength("tags", ">", 2)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `users` where json_length(`tags`) > ?", sql)
	assert.Equal(t, []interface{}{int64(2)}, args)
}

func TestMySQLJSONBoolExprComparesRawExtractAgainstLiteral(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("users").Where("preferences->active", true)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `users` where json_extract(`preferences`, '$.\"active\"') = true", sql)
	assert.Empty(t, args)
}

func TestPostgresJSONBoolExprCastsToJSONBAndComparesLiteral(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("users").Where("preferences->active", false)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where ("preferences"->'active')::jsonb = 'false'::jsonb`, sql)
	assert.Empty(t, args)
}

func TestPostgresJSONContainsKeyDoublesQuestionMark(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("users").WhereJSONContainsKey("tags")
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where coalesce(("tags")::jsonb ?? 'tags', false)`, sql)
}

func TestMySQLFulltextBooleanMode(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("posts").WhereFulltext([]string{"title", "body"}, "+go -java", "boolean", false)
	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "select * from `posts` where match(`title`, `body`) against(? in boolean mode)", sql)
	assert.Equal(t, []interface{}{"+go -java"}, args)
}

func TestPostgresFulltextWebsearchMode(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("posts").WhereFulltext([]string{"body"}, "go sql", "websearch", false)
	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "posts" where to_tsvector('english', "body") @@ websearch_to_tsquery('english', ?)`, sql)
}

func TestPostgresFulltextRejectsUnknownMode(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("posts").WhereFulltext([]string{"body"}, "go sql", "bm25", false)
	_, _, err := b.ToSQL()
	require.Error(t, err)
}

func TestToRawSQLEscapesAndDoublesPostgresQuestionMark(t *testing.T) {
	g := NewPostgres("")
	escape := func(v lihtne.Value) string {
		if v.Kind() == lihtne.KindString {
			return "'" + v.Resolved("Y-m-d H:i:s").(string) + "'"
		}
		return "?"
	}
	out := g.ToRawSQL(`select * from t where a = ? and meta ?? 'x' = ?`, []lihtne.Value{lihtne.Str("hi"), lihtne.Str("bye")}, escape)
	assert.Equal(t, `select * from t where a = 'hi' and meta ? 'x' = 'bye'`, out)
}

// TestSQLiteUpdateMergesJSONPathAssignmentsIntoOneJSONPatch exercises the
// documented SQLite update form: every "options->..." path assignment on
// the same column folds into a single json_patch call against a merged
// replacement document, while plain columns (including a raw expression)
// compile unchanged alongside it.
func TestSQLiteUpdateMergesJSONPathAssignmentsIntoOneJSONPatch(t *testing.T) {
	g := NewSQLite("")
	b := newBuilder(g).From("settings").Where("id", 45)
	assignments := []lihtne.Assignment{
		{Column: "options->name", Value: lihtne.ValueOf("X")},
		{Column: "group_id", Value: lihtne.ValueOf(lihtne.Expr("45"))},
		{Column: "options->security", Value: lihtne.ValueOf(map[string]interface{}{"enabled": true, "level": "high"})},
		{Column: "options->sharing->twitter", Value: lihtne.ValueOf("u")},
		{Column: "created_at", Value: lihtne.ValueOf(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
	}

	sql, bindings, err := g.CompileUpdate(b.IR(), assignments)
	require.NoError(t, err)
	assert.Equal(t,
		`update "settings" set "options" = json_patch(ifnull("options", json('{}')), json(?)), "group_id" = 45, "created_at" = ? where "id" = ?`,
		sql)
	require.Len(t, bindings, 3)
	assert.Equal(t, `{"name":"X","security":{"enabled":true,"level":"high"},"sharing":{"twitter":"u"}}`, bindings[0].Resolved(""))
	assert.Equal(t, "2024-01-02 03:04:05", bindings[1].Resolved(g.GetDateFormat()))
	assert.Equal(t, int64(45), bindings[2].Resolved(""))
}

func TestMySQLUpdateFoldsJSONPathAssignmentsIntoJSONSet(t *testing.T) {
	g := NewMySQL("", false)
	b := newBuilder(g).From("settings").Where("id", 1)
	assignments := []lihtne.Assignment{
		{Column: "options->name", Value: lihtne.ValueOf("X")},
		{Column: "options->count", Value: lihtne.ValueOf(3)},
	}

	sql, bindings, err := g.CompileUpdate(b.IR(), assignments)
	require.NoError(t, err)
	assert.Equal(t,
		"update `settings` set `options` = json_set(`options`, '$.\"name\"', cast(? as json), '$.\"count\"', cast(? as json)) where `id` = ?",
		sql)
	require.Len(t, bindings, 3)
	assert.Equal(t, `"X"`, bindings[0].Resolved(""))
	assert.Equal(t, "3", bindings[1].Resolved(""))
}

func TestPostgresUpdateNestsJSONBSetPerPath(t *testing.T) {
	g := NewPostgres("")
	b := newBuilder(g).From("settings").Where("id", 1)
	assignments := []lihtne.Assignment{
		{Column: "options->name", Value: lihtne.ValueOf("X")},
		{Column: "options->sharing->twitter", Value: lihtne.ValueOf("u")},
	}

	sql, bindings, err := g.CompileUpdate(b.IR(), assignments)
	require.NoError(t, err)
	assert.Equal(t,
		`update "settings" set "options" = jsonb_set(jsonb_set(("options")::jsonb, '{name}', ?::jsonb), '{sharing,twitter}', ?::jsonb) where "id" = ?`,
		sql)
	require.Len(t, bindings, 3)
	assert.Equal(t, `"X"`, bindings[0].Resolved(""))
	assert.Equal(t, `"u"`, bindings[1].Resolved(""))
}

// TestANSIUnionOrderByAppliesToWholeComposition is scenario S1: an
// orderBy following a union must apply to the whole union composition
// rather than getting trapped inside the first member's parens.
func TestANSIUnionOrderByAppliesToWholeComposition(t *testing.T) {
	g := NewANSI("")
	second := newBuilder(g).From("users").Where("id", 2)
	b := newBuilder(g).From("users").Where("id", 1).
		Union(second).
		OrderBy("id", lihtne.Desc)

	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`(select * from "users" where "id" = ?) union (select * from "users" where "id" = ?) order by "id" desc`,
		sql)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, args)
}

// TestANSIHavingBetweenOrHavingRawJoinsWithBooleanOperator is scenario
// S2: a second having clause joined with OR must carry its boolean
// joiner in the compiled SQL, symmetric with how where clauses join.
func TestANSIHavingBetweenOrHavingRawJoinsWithBooleanOperator(t *testing.T) {
	g := NewANSI("")
	b := newBuilder(g).From("users").
		HavingBetween("last_login_date", "2018-11-16", "2018-12-16").
		OrHavingRaw("user_foo < user_bar")

	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`select * from "users" having "last_login_date" between ? and ? or user_foo < user_bar`,
		sql)
	assert.Equal(t, []interface{}{"2018-11-16", "2018-12-16"}, args)
}
