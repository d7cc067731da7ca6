package inventory

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Logger is the subset of the application logger the handlers use.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Controller holds the wiring the inventory handlers need.
type Controller struct {
	Debug  bool
	Logger Logger
	Repo   Manager
}

// RegisterRoutes mounts the inventory surface under the given router.
// Every route sits behind the supplied auth middleware.
func RegisterRoutes(api fiber.Router, ctrl *Controller, requireAuth fiber.Handler) {
	inv := api.Group("/inventory", requireAuth)

	registerReference(inv, "/pastry-types", refConfig[*PastryType]{
		field: "name",
		make:  func(v string) *PastryType { return &PastryType{ID: uuid.New(), Name: v} },
		set:   func(r *PastryType, v string) { r.Name = v },
		create: func(ctx context.Context, r *PastryType) (*PastryType, error) {
			return ctrl.Repo.PastryTypes().Create(ctx, r)
		},
		update: func(ctx context.Context, r *PastryType) (*PastryType, error) {
			return ctrl.Repo.PastryTypes().Update(ctx, r)
		},
		list: ctrl.Repo.ListPastryTypes,
		find: ctrl.Repo.FindPastryType,
		del:  ctrl.Repo.DeletePastryType,
	})

	registerReference(inv, "/raw-material-types", refConfig[*RawMaterialType]{
		field: "name",
		make:  func(v string) *RawMaterialType { return &RawMaterialType{ID: uuid.New(), Name: v} },
		set:   func(r *RawMaterialType, v string) { r.Name = v },
		create: func(ctx context.Context, r *RawMaterialType) (*RawMaterialType, error) {
			return ctrl.Repo.RawMaterialTypes().Create(ctx, r)
		},
		update: func(ctx context.Context, r *RawMaterialType) (*RawMaterialType, error) {
			return ctrl.Repo.RawMaterialTypes().Update(ctx, r)
		},
		list: ctrl.Repo.ListRawMaterialTypes,
		find: ctrl.Repo.FindRawMaterialType,
		del:  ctrl.Repo.DeleteRawMaterialType,
	})

	registerReference(inv, "/batches", refConfig[*PastryRawMaterialBatch]{
		field: "batch_code",
		make: func(v string) *PastryRawMaterialBatch {
			return &PastryRawMaterialBatch{ID: uuid.New(), BatchCode: v}
		},
		set: func(r *PastryRawMaterialBatch, v string) { r.BatchCode = v },
		create: func(ctx context.Context, r *PastryRawMaterialBatch) (*PastryRawMaterialBatch, error) {
			return ctrl.Repo.Batches().Create(ctx, r)
		},
		update: func(ctx context.Context, r *PastryRawMaterialBatch) (*PastryRawMaterialBatch, error) {
			return ctrl.Repo.Batches().Update(ctx, r)
		},
		list: ctrl.Repo.ListBatches,
		find: ctrl.Repo.FindBatch,
		del:  ctrl.Repo.DeleteBatch,
	})

	registerReference(inv, "/times-of-day", refConfig[*TimeOfDay]{
		field: "name",
		make:  func(v string) *TimeOfDay { return &TimeOfDay{ID: uuid.New(), Name: v} },
		set:   func(r *TimeOfDay, v string) { r.Name = v },
		create: func(ctx context.Context, r *TimeOfDay) (*TimeOfDay, error) {
			return ctrl.Repo.TimesOfDay().Create(ctx, r)
		},
		update: func(ctx context.Context, r *TimeOfDay) (*TimeOfDay, error) {
			return ctrl.Repo.TimesOfDay().Update(ctx, r)
		},
		list: ctrl.Repo.ListTimesOfDay,
		find: ctrl.Repo.FindTimeOfDay,
		del:  ctrl.Repo.DeleteTimeOfDay,
	})

	inv.Post("/raw-materials/", ctrl.CreateRawMaterial)
	inv.Get("/raw-materials/", ctrl.ListRawMaterials)
	inv.Get("/raw-materials/:id/", ctrl.GetRawMaterial)
	inv.Put("/raw-materials/:id/", ctrl.UpdateRawMaterial)
	inv.Delete("/raw-materials/:id/", ctrl.DeleteRawMaterial)
}

// refConfig describes how a single-field reference model binds to its
// repository. The same five handlers serve every reference resource.
type refConfig[T any] struct {
	field  string
	make   func(value string) T
	set    func(record T, value string)
	create func(ctx context.Context, record T) (T, error)
	update func(ctx context.Context, record T) (T, error)
	list   func(ctx context.Context) ([]T, error)
	find   func(ctx context.Context, id uuid.UUID) (T, error)
	del    func(ctx context.Context, id uuid.UUID) error
}

func registerReference[T any](grp fiber.Router, path string, cfg refConfig[T]) {
	grp.Post(path+"/", func(c *fiber.Ctx) error {
		value, err := referenceValue(c, cfg.field)
		if err != nil {
			return err
		}

		record, err := cfg.create(c.UserContext(), cfg.make(value))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create record")
		}

		return c.Status(fiber.StatusCreated).JSON(record)
	})

	grp.Get(path+"/", func(c *fiber.Ctx) error {
		records, err := cfg.list(c.UserContext())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list records")
		}
		return c.JSON(records)
	})

	grp.Get(path+"/:id/", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}

		record, err := cfg.find(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(record)
	})

	grp.Put(path+"/:id/", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}

		value, err := referenceValue(c, cfg.field)
		if err != nil {
			return err
		}

		record, err := cfg.find(c.UserContext(), id)
		if err != nil {
			return err
		}

		cfg.set(record, value)

		updated, err := cfg.update(c.UserContext(), record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update record")
		}
		return c.JSON(updated)
	})

	grp.Delete(path+"/:id/", func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}

		if err := cfg.del(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func referenceValue(c *fiber.Ctx, field string) (string, error) {
	body := map[string]string{}
	if err := c.BodyParser(&body); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	value := body[field]
	if err := validation.Validate(value, validation.Required, validation.Length(1, 512)); err != nil {
		return "", validation.Errors{field: err}
	}

	return value, nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed record id")
	}
	return id, nil
}

// RawMaterialPayload is the raw material request body
type RawMaterialPayload struct {
	Weight            float64   `json:"weight"`
	Cost              float64   `json:"cost"`
	Status            string    `json:"processing_status"`
	PastryTypeID      uuid.UUID `json:"pastry_type_id"`
	TimeOfDayID       uuid.UUID `json:"time_of_day_id"`
	RawMaterialTypeID uuid.UUID `json:"raw_material_type_id"`
	BatchID           uuid.UUID `json:"batch_id"`
}

// Validate will validate the payload
func (r RawMaterialPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Weight, validation.Required, validation.Min(0.0)),
		validation.Field(&r.Cost, validation.Required, validation.Min(0.0)),
		validation.Field(&r.Status, validation.Required, validation.In(
			string(StatusRaw),
			string(StatusDone),
		)),
		validation.Field(&r.PastryTypeID, validation.Required),
		validation.Field(&r.TimeOfDayID, validation.Required),
		validation.Field(&r.RawMaterialTypeID, validation.Required),
		validation.Field(&r.BatchID, validation.Required),
	)
}

func (a *Controller) CreateRawMaterial(c *fiber.Ctx) error {
	payload := new(RawMaterialPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("raw material parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := a.ensureRelations(c.UserContext(), payload); err != nil {
		return err
	}

	record := &RawMaterial{
		ID:                uuid.New(),
		Weight:            payload.Weight,
		Cost:              payload.Cost,
		Status:            ProcessingStatus(payload.Status),
		PastryTypeID:      payload.PastryTypeID,
		TimeOfDayID:       payload.TimeOfDayID,
		RawMaterialTypeID: payload.RawMaterialTypeID,
		BatchID:           payload.BatchID,
	}

	created, err := a.Repo.RawMaterials().Create(c.UserContext(), record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create raw material")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a *Controller) ListRawMaterials(c *fiber.Ctx) error {
	filter := RawMaterialFilter{}

	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed batch_id filter")
		}
		filter.BatchID = id
	}

	if raw := c.Query("processing_status"); raw != "" {
		status := ProcessingStatus(raw)
		if !status.Valid() {
			return goerrors.New("unknown processing_status filter", goerrors.CategoryBadInput).
				WithMetadata(map[string]any{"processing_status": raw})
		}
		filter.Status = status
	}

	records, err := a.Repo.RawMaterials().ListFiltered(c.UserContext(), filter)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list raw materials")
	}

	return c.JSON(records)
}

func (a *Controller) GetRawMaterial(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	record, err := a.Repo.RawMaterials().Find(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (a *Controller) UpdateRawMaterial(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	payload := new(RawMaterialPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("raw material parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := a.ensureRelations(c.UserContext(), payload); err != nil {
		return err
	}

	record, err := a.Repo.RawMaterials().Find(c.UserContext(), id)
	if err != nil {
		return err
	}

	record.Weight = payload.Weight
	record.Cost = payload.Cost
	record.Status = ProcessingStatus(payload.Status)
	record.PastryTypeID = payload.PastryTypeID
	record.TimeOfDayID = payload.TimeOfDayID
	record.RawMaterialTypeID = payload.RawMaterialTypeID
	record.BatchID = payload.BatchID

	updated, err := a.Repo.RawMaterials().Update(c.UserContext(), record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update raw material")
	}

	return c.JSON(updated)
}

func (a *Controller) DeleteRawMaterial(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := a.Repo.DeleteRawMaterial(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ensureRelations rejects a payload whose foreign keys point at records
// that do not exist, so the database never sees a dangling reference.
func (a *Controller) ensureRelations(ctx context.Context, payload *RawMaterialPayload) error {
	if _, err := a.Repo.FindPastryType(ctx, payload.PastryTypeID); err != nil {
		return err
	}
	if _, err := a.Repo.FindTimeOfDay(ctx, payload.TimeOfDayID); err != nil {
		return err
	}
	if _, err := a.Repo.FindRawMaterialType(ctx, payload.RawMaterialTypeID); err != nil {
		return err
	}
	if _, err := a.Repo.FindBatch(ctx, payload.BatchID); err != nil {
		return err
	}
	return nil
}
