package bakery

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthTokens stores session credentials by digest.
type AuthTokens interface {
	repository.Repository[*AuthToken]

	FindByDigest(ctx context.Context, digest string) (*AuthToken, error)
	FindByDigestTx(ctx context.Context, tx bun.IDB, digest string) (*AuthToken, error)

	DeleteByDigest(ctx context.Context, digest string) error

	RevokeAll(ctx context.Context, userID uuid.UUID) error
	RevokeAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error

	DeleteExpired(ctx context.Context) (int, error)
}

type authTokens struct {
	repository.Repository[*AuthToken]
	db *bun.DB
}

var (
	_ AuthTokens                        = (*authTokens)(nil)
	_ repository.Repository[*AuthToken] = (*authTokens)(nil)
)

func NewAuthTokensRepository(db *bun.DB) AuthTokens {
	repo := repository.NewRepository[*AuthToken](db, repository.ModelHandlers[*AuthToken]{
		NewRecord: func() *AuthToken { return &AuthToken{} },
		GetID: func(t *AuthToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *AuthToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "digest"
		},
	})

	return &authTokens{
		Repository: repo,
		db:         db,
	}
}

func (a *authTokens) FindByDigest(ctx context.Context, digest string) (*AuthToken, error) {
	return a.FindByDigestTx(ctx, a.db, digest)
}

func (a *authTokens) FindByDigestTx(ctx context.Context, tx bun.IDB, digest string) (*AuthToken, error) {
	record := &AuthToken{}

	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where(`?TableAlias.digest = ?`, digest).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *authTokens) DeleteByDigest(ctx context.Context, digest string) error {
	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where(`?TableAlias.digest = ?`, digest).
		Exec(ctx)

	return err
}

func (a *authTokens) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return a.RevokeAllTx(ctx, a.db, userID)
}

func (a *authTokens) RevokeAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*AuthToken)(nil)).
		Where(`?TableAlias.user_id = ?`, userID).
		Exec(ctx)

	return err
}

func (a *authTokens) DeleteExpired(ctx context.Context) (int, error) {
	res, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where(`?TableAlias.expires_at <= ?`, time.Now()).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}
