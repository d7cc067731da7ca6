package bakery_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	bakery "github.com/seun-beta/bakery-api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	// keep password hashing cheap in tests
	bakery.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) (*bun.DB, bakery.RepositoryManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bakery.CreateSchema(context.Background(), db))

	repo := bakery.NewRepositoryManager(db)
	repo.MustValidate()

	return db, repo
}

type userSpec struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Active    bool
	Verified  bool
}

func createTestUser(t *testing.T, repo bakery.RepositoryManager, spec userSpec) *bakery.User {
	t.Helper()

	hash, err := bakery.HashPassword(spec.Password)
	require.NoError(t, err)

	if spec.FirstName == "" {
		spec.FirstName = "Ada"
	}
	if spec.LastName == "" {
		spec.LastName = "Lovelace"
	}

	user, err := repo.Users().Create(context.Background(), &bakery.User{
		Email:        spec.Email,
		FirstName:    spec.FirstName,
		LastName:     spec.LastName,
		PasswordHash: hash,
		IsActive:     spec.Active,
		IsVerified:   spec.Verified,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}
