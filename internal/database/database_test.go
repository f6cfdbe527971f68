package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements_SplitsAndStripsComments(t *testing.T) {
	script := `
-- first table
CREATE TABLE a (id INT);

CREATE TABLE b (
    id INT -- trailing comments stay
);
-- dangling comment
`
	stmts := Statements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b ("))
}

func TestSchema_HasEveryTable(t *testing.T) {
	stmts := Statements(Schema)
	tables := []string{
		"users", "categories", "meals", "carts", "cart_items", "addresses",
		"orders", "order_items", "notifications", "ai_chat_history",
	}
	require.Len(t, stmts, len(tables))
	for i, table := range tables {
		assert.Contains(t, stmts[i], "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
