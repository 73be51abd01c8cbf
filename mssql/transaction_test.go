package mssql_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/mssql"
)

func TestSanitizeReplacesAndTruncates(t *testing.T) {
	got := mssql.Sanitize("my-savepoint.name-with-a-very-long-suffix", 10)
	require.LessOrEqual(t, len(got), 10)
	require.NotContains(t, got, "-")
	require.NotContains(t, got, ".")
}

func TestSanitizeDropsLeadingNonAlphanumeric(t *testing.T) {
	got := mssql.Sanitize("-leading-dash", 32)
	require.NotEmpty(t, got)
	require.Equal(t, "leading_dash", got)
	err := mssql.ValidateIdentifier(got, 32)
	require.NoError(t, err)
}

func TestValidateIdentifierRejectsEmpty(t *testing.T) {
	require.ErrorIs(t, mssql.ValidateIdentifier("", 32), mssql.ErrInvalidIdentifier)
}

func TestBeginTransactionIncludesIsolationAndLockTimeout(t *testing.T) {
	sql := mssql.BeginTransaction("tx1", mssql.ReadCommitted, 5*time.Second)
	require.Contains(t, sql, "BEGIN TRANSACTION tx1")
	require.Contains(t, sql, "READ COMMITTED")
	require.Contains(t, sql, "SET LOCK_TIMEOUT 5000;")
}

func TestCommitAndRollbackAreIdempotentSingleStatements(t *testing.T) {
	require.Equal(t, "IF @@TRANCOUNT > 0 COMMIT TRANSACTION;", mssql.CommitTransaction())
	require.Equal(t, "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION;", mssql.RollbackTransaction())
}

func TestEngineOptionsValidate(t *testing.T) {
	require.NoError(t, mssql.EngineOptions{FetchSize: 128}.Validate())

	err := mssql.EngineOptions{FetchSize: -1}.Validate()
	require.ErrorIs(t, err, mssql.ErrInvalidOption)

	err = mssql.EngineOptions{PreparedStatementCache: mssql.PreparedStatementCacheLRU}.Validate()
	require.ErrorIs(t, err, mssql.ErrInvalidOption)
}
