package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Manager exposes all inventory repositories
type Manager interface {
	repository.Validator
	repository.TransactionManager

	PastryTypes() repository.Repository[*PastryType]
	RawMaterialTypes() repository.Repository[*RawMaterialType]
	Batches() repository.Repository[*PastryRawMaterialBatch]
	TimesOfDay() repository.Repository[*TimeOfDay]
	RawMaterials() RawMaterials

	ListPastryTypes(ctx context.Context) ([]*PastryType, error)
	ListRawMaterialTypes(ctx context.Context) ([]*RawMaterialType, error)
	ListBatches(ctx context.Context) ([]*PastryRawMaterialBatch, error)
	ListTimesOfDay(ctx context.Context) ([]*TimeOfDay, error)

	FindPastryType(ctx context.Context, id uuid.UUID) (*PastryType, error)
	FindRawMaterialType(ctx context.Context, id uuid.UUID) (*RawMaterialType, error)
	FindBatch(ctx context.Context, id uuid.UUID) (*PastryRawMaterialBatch, error)
	FindTimeOfDay(ctx context.Context, id uuid.UUID) (*TimeOfDay, error)

	DeletePastryType(ctx context.Context, id uuid.UUID) error
	DeleteRawMaterialType(ctx context.Context, id uuid.UUID) error
	DeleteBatch(ctx context.Context, id uuid.UUID) error
	DeleteTimeOfDay(ctx context.Context, id uuid.UUID) error
	DeleteRawMaterial(ctx context.Context, id uuid.UUID) error
}

// RawMaterialFilter narrows raw material listings.
type RawMaterialFilter struct {
	BatchID uuid.UUID
	Status  ProcessingStatus
}

// RawMaterials stores ingredient entries with their relations.
type RawMaterials interface {
	repository.Repository[*RawMaterial]

	ListFiltered(ctx context.Context, filter RawMaterialFilter) ([]*RawMaterial, error)
	Find(ctx context.Context, id uuid.UUID) (*RawMaterial, error)
}

func newHandlers[T any](newRecord func() T, getID func(T) uuid.UUID, setID func(T, uuid.UUID)) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID:     getID,
		SetID:     setID,
		GetIdentifier: func() string {
			return "id"
		},
	}
}

type mngr struct {
	db               *bun.DB
	pastryTypes      repository.Repository[*PastryType]
	rawMaterialTypes repository.Repository[*RawMaterialType]
	batches          repository.Repository[*PastryRawMaterialBatch]
	timesOfDay       repository.Repository[*TimeOfDay]
	rawMaterials     RawMaterials
}

func NewManager(db *bun.DB) Manager {
	return &mngr{
		db: db,
		pastryTypes: repository.NewRepository[*PastryType](db, newHandlers(
			func() *PastryType { return &PastryType{} },
			func(r *PastryType) uuid.UUID {
				if r == nil {
					return uuid.Nil
				}
				return r.ID
			},
			func(r *PastryType, id uuid.UUID) { r.ID = id },
		)),
		rawMaterialTypes: repository.NewRepository[*RawMaterialType](db, newHandlers(
			func() *RawMaterialType { return &RawMaterialType{} },
			func(r *RawMaterialType) uuid.UUID {
				if r == nil {
					return uuid.Nil
				}
				return r.ID
			},
			func(r *RawMaterialType, id uuid.UUID) { r.ID = id },
		)),
		batches: repository.NewRepository[*PastryRawMaterialBatch](db, newHandlers(
			func() *PastryRawMaterialBatch { return &PastryRawMaterialBatch{} },
			func(r *PastryRawMaterialBatch) uuid.UUID {
				if r == nil {
					return uuid.Nil
				}
				return r.ID
			},
			func(r *PastryRawMaterialBatch, id uuid.UUID) { r.ID = id },
		)),
		timesOfDay: repository.NewRepository[*TimeOfDay](db, newHandlers(
			func() *TimeOfDay { return &TimeOfDay{} },
			func(r *TimeOfDay) uuid.UUID {
				if r == nil {
					return uuid.Nil
				}
				return r.ID
			},
			func(r *TimeOfDay, id uuid.UUID) { r.ID = id },
		)),
		rawMaterials: newRawMaterialsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.rawMaterials == nil {
		return errors.New("repository rawMaterials should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) PastryTypes() repository.Repository[*PastryType] { return m.pastryTypes }

func (m mngr) RawMaterialTypes() repository.Repository[*RawMaterialType] {
	return m.rawMaterialTypes
}

func (m mngr) Batches() repository.Repository[*PastryRawMaterialBatch] { return m.batches }

func (m mngr) TimesOfDay() repository.Repository[*TimeOfDay] { return m.timesOfDay }

func (m mngr) RawMaterials() RawMaterials { return m.rawMaterials }

func (m mngr) ListPastryTypes(ctx context.Context) ([]*PastryType, error) {
	return listAll[PastryType](ctx, m.db)
}

func (m mngr) ListRawMaterialTypes(ctx context.Context) ([]*RawMaterialType, error) {
	return listAll[RawMaterialType](ctx, m.db)
}

func (m mngr) ListBatches(ctx context.Context) ([]*PastryRawMaterialBatch, error) {
	return listAll[PastryRawMaterialBatch](ctx, m.db)
}

func (m mngr) ListTimesOfDay(ctx context.Context) ([]*TimeOfDay, error) {
	return listAll[TimeOfDay](ctx, m.db)
}

func (m mngr) FindPastryType(ctx context.Context, id uuid.UUID) (*PastryType, error) {
	return findByID[PastryType](ctx, m.db, id)
}

func (m mngr) FindRawMaterialType(ctx context.Context, id uuid.UUID) (*RawMaterialType, error) {
	return findByID[RawMaterialType](ctx, m.db, id)
}

func (m mngr) FindBatch(ctx context.Context, id uuid.UUID) (*PastryRawMaterialBatch, error) {
	return findByID[PastryRawMaterialBatch](ctx, m.db, id)
}

func (m mngr) FindTimeOfDay(ctx context.Context, id uuid.UUID) (*TimeOfDay, error) {
	return findByID[TimeOfDay](ctx, m.db, id)
}

func (m mngr) DeletePastryType(ctx context.Context, id uuid.UUID) error {
	return deleteByID[PastryType](ctx, m.db, id)
}

func (m mngr) DeleteRawMaterialType(ctx context.Context, id uuid.UUID) error {
	return deleteByID[RawMaterialType](ctx, m.db, id)
}

func (m mngr) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	return deleteByID[PastryRawMaterialBatch](ctx, m.db, id)
}

func (m mngr) DeleteTimeOfDay(ctx context.Context, id uuid.UUID) error {
	return deleteByID[TimeOfDay](ctx, m.db, id)
}

func (m mngr) DeleteRawMaterial(ctx context.Context, id uuid.UUID) error {
	return deleteByID[RawMaterial](ctx, m.db, id)
}

func findByID[T any](ctx context.Context, db *bun.DB, id uuid.UUID) (*T, error) {
	record := new(T)

	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func deleteByID[T any](ctx context.Context, db *bun.DB, id uuid.UUID) error {
	res, err := db.NewDelete().
		Model((*T)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func listAll[T any](ctx context.Context, db *bun.DB) ([]*T, error) {
	var out []*T
	err := db.NewSelect().
		Model(&out).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rawMaterials struct {
	repository.Repository[*RawMaterial]
	db *bun.DB
}

func newRawMaterialsRepository(db *bun.DB) RawMaterials {
	repo := repository.NewRepository[*RawMaterial](db, newHandlers(
		func() *RawMaterial { return &RawMaterial{} },
		func(r *RawMaterial) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		func(r *RawMaterial, id uuid.UUID) { r.ID = id },
	))

	return &rawMaterials{
		Repository: repo,
		db:         db,
	}
}

func (a *rawMaterials) ListFiltered(ctx context.Context, filter RawMaterialFilter) ([]*RawMaterial, error) {
	var out []*RawMaterial

	// the joined reference tables all carry created_at; qualify ours
	q := a.db.NewSelect().
		Model(&out).
		Relation("PastryType").
		Relation("TimeOfDay").
		Relation("RawMaterialType").
		Relation("Batch").
		Order("raw.created_at DESC")

	if filter.BatchID != uuid.Nil {
		q = q.Where("?TableAlias.batch_id = ?", filter.BatchID)
	}

	if filter.Status != "" {
		q = q.Where("?TableAlias.processing_status = ?", filter.Status)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return out, nil
}

func (a *rawMaterials) Find(ctx context.Context, id uuid.UUID) (*RawMaterial, error) {
	record := &RawMaterial{}

	err := a.db.NewSelect().
		Model(record).
		Relation("PastryType").
		Relation("TimeOfDay").
		Relation("RawMaterialType").
		Relation("Batch").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}
