package repo

import (
	"context"
	"reflect"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

type txKey struct{}

type TxService interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BaseRepo interface {
	TxService

	Create(ctx context.Context, data interface{}) error
	Get(ctx context.Context, model interface{}, f *Filter) error
	GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *entity.Pagination, error)
	Count(ctx context.Context, model interface{}, f *Filter) (uint64, error)
	Update(ctx context.Context, model interface{}) error
	UpdateWhere(ctx context.Context, model interface{}, f *Filter, values map[string]interface{}) (int64, error)
	Aggregate(ctx context.Context, model, dest interface{}, selectExpr string, f *Filter) error
	Close(ctx context.Context) error
}

type baseRepo struct {
	db *gorm.DB
}

func NewBaseRepo(_ context.Context, pgCfg config.Postgres) (BaseRepo, error) {
	db, err := gorm.Open(postgres.Open(pgCfg.ToDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &baseRepo{
		db: db,
	}, nil
}

func (r *baseRepo) Create(ctx context.Context, data interface{}) error {
	return r.getDb(ctx).Create(data).Error
}

func (r *baseRepo) Get(ctx context.Context, model interface{}, f *Filter) error {
	sqlQuery, args := ToSqlWithArgs(f)

	return r.getDb(ctx).Model(model).Where(sqlQuery, args...).First(model).Error
}

func (r *baseRepo) Count(ctx context.Context, model interface{}, f *Filter) (uint64, error) {
	sqlQuery, args := ToSqlWithArgs(f)

	var count int64
	if err := r.getDb(ctx).Model(model).Where(sqlQuery, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	return uint64(count), nil
}

func (r *baseRepo) GetMany(ctx context.Context, model interface{}, f *Filter) ([]interface{}, *entity.Pagination, error) {
	var (
		db             = r.getDb(ctx)
		sqlQuery, args = ToSqlWithArgs(f)
		query          = db.Model(model).Where(sqlQuery, args...)
	)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, nil, err
	}

	pagination := f.Pagination
	if pagination == nil {
		pagination = new(Pagination)
	}

	var (
		limit = pagination.GetLimit()
		page  = pagination.GetPage()
	)
	if page == 0 {
		page = 1
	}

	query = query.Offset(int((page - 1) * limit)).Order("create_time DESC")
	if limit > 0 {
		query = query.Limit(int(limit + 1))
	}

	var (
		modelElem = reflect.TypeOf(model).Elem()
		queryRes  = reflect.New(reflect.SliceOf(modelElem)).Interface()
	)
	if err := query.Find(queryRes).Error; err != nil {
		return nil, nil, err
	}

	var (
		resElem = reflect.ValueOf(queryRes).Elem()
		res     = make([]interface{}, resElem.Len())
	)
	for i := 0; i < resElem.Len(); i++ {
		res[i] = resElem.Index(i).Addr().Interface() // return addr
	}

	var hasNext bool
	if limit > 0 && len(res) > int(limit) {
		hasNext = true
		res = res[:limit]
	}

	return res, &entity.Pagination{
		Page:    goutil.Uint32(page),
		Limit:   pagination.Limit,
		HasNext: goutil.Bool(hasNext),
		Total:   goutil.Int64(count),
	}, nil
}

func (r *baseRepo) Update(ctx context.Context, model interface{}) error {
	return r.getDb(ctx).Updates(model).Error
}

// UpdateWhere applies the given column expressions as one UPDATE statement
// and reports how many rows it touched.
func (r *baseRepo) UpdateWhere(ctx context.Context, model interface{}, f *Filter, values map[string]interface{}) (int64, error) {
	sqlQuery, args := ToSqlWithArgs(f)

	res := r.getDb(ctx).Model(model).Where(sqlQuery, args...).Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *baseRepo) Aggregate(ctx context.Context, model, dest interface{}, selectExpr string, f *Filter) error {
	sqlQuery, args := ToSqlWithArgs(f)

	return r.getDb(ctx).
		Model(model).
		Where(sqlQuery, args...).
		Select(selectExpr).
		Scan(dest).Error
}

func (r *baseRepo) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.hasTx(ctx) {
		return fn(ctx)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		ctxWithTx := context.WithValue(ctx, txKey{}, tx)
		if err := fn(ctxWithTx); err != nil {
			return err
		}
		return nil
	})
}

func (r *baseRepo) Close(_ context.Context) error {
	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return err
		}

		err = sqlDB.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepo) getDb(ctx context.Context) *gorm.DB {
	db, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		db = r.db
	}
	return db
}

func (r *baseRepo) hasTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
