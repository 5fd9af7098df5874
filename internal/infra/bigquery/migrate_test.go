package bigquery

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_transactions.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` ();")},
		"0001_accounts.sql":     {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.accounts` ();")},
		"001_invalid.sql":       {Data: []byte("x")},
		"0003_missing_ext":      {Data: []byte("x")},
		"README.md":             {Data: []byte("x")},
	}

	migrations, err := ReadMigrations(fsys, "proj", "banking")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "accounts", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.banking.accounts` ();", migrations[0].SQL)
	assert.Len(t, migrations[0].Checksum, 64)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestReadMigrations_ChecksumIgnoresTarget(t *testing.T) {
	fsys := fstest.MapFS{"0001_a.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` ();")}}

	a, err := ReadMigrations(fsys, "p1", "d1")
	require.NoError(t, err)
	b, err := ReadMigrations(fsys, "p2", "d2")
	require.NoError(t, err)

	assert.Equal(t, a[0].Checksum, b[0].Checksum)
	assert.NotEqual(t, a[0].SQL, b[0].SQL)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("a")},
		"0001_b.sql": {Data: []byte("b")},
	}
	_, err := ReadMigrations(fsys, "p", "d")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	require.NoError(t, err)

	migrations, err := ReadMigrations(sub, "proj", "banking")
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	tables := []string{accountsTable, transactionsTable, balanceHistoriesTable}
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.Contains(t, m.SQL, "`proj.banking."+tables[i]+"`")
		assert.NotContains(t, m.SQL, "{{")
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	pending := PendingMigrations(all, []AppliedMigration{{Version: 1}, {Version: 3}})
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Len(t, PendingMigrations(all, nil), 3)
}
