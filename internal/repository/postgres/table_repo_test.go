package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestTableRepo_Select_Ordered(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_jsonb(t.*) FROM foods AS t ORDER BY t.name ASC`)).
		WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}).
			AddRow([]byte(`{"id":"f1","name":"Armut","default_unit_id":null}`)).
			AddRow([]byte(`{"id":"f2","name":"Elma","default_unit_id":"unit_adet"}`)))

	rows, err := r.Select(context.Background(), model.SelectQuery{Table: model.TableFoods, Order: "name", Ascending: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Armut", rows[0]["name"])
	require.Nil(t, rows[0]["default_unit_id"])
	require.Equal(t, "unit_adet", rows[1]["default_unit_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Select_DescAndUnordered(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_jsonb(t.*) FROM weight_logs AS t ORDER BY t.date DESC`)).
		WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}))
	rows, err := r.Select(ctx, model.SelectQuery{Table: model.TableWeightLogs, Order: "date"})
	require.NoError(t, err)
	require.Empty(t, rows)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_jsonb(t.*) FROM meal_items AS t`)).
		WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}).AddRow([]byte(`{"id":"m1"}`)))
	rows, err = r.Select(ctx, model.SelectQuery{Table: model.TableMealItems})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Select_Rejects(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	_, err := r.Select(ctx, model.SelectQuery{Table: "users"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = r.Select(ctx, model.SelectQuery{Table: model.TableFoods, Order: "name; DROP TABLE foods"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Insert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)

	row := model.Row{"id": "f1", "name": "Elma", "default_unit_id": nil}
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO foods AS t (default_unit_id, id, name) SELECT r.default_unit_id, r.id, r.name `+
			`FROM jsonb_populate_record(NULL::foods, $1::jsonb) AS r RETURNING to_jsonb(t.*)`)).
		WithArgs(`{"default_unit_id":null,"id":"f1","name":"Elma"}`).
		WillReturnRows(pgxmock.NewRows([]string{"to_jsonb"}).
			AddRow([]byte(`{"id":"f1","name":"Elma","default_unit_id":null,"recipe_id":null,"created_at":"2024-05-01T10:00:00+00:00"}`)))

	out, err := r.Insert(context.Background(), model.TableFoods, row)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01T10:00:00+00:00", out["created_at"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Insert_Errors(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	_, err := r.Insert(ctx, model.TableFoods, model.Row{"id": "f1", "owner": "x"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = r.Insert(ctx, model.TableFoods, model.Row{})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO units AS t (id, name)`)).
		WithArgs(`{"id":"u1","name":"Kupa"}`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Insert(ctx, model.TableUnits, model.Row{"id": "u1", "name": "Kupa"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Update_ByDate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE water_logs AS t SET glasses = r.glasses FROM jsonb_populate_record(NULL::water_logs, $1::jsonb) AS r, `+
			`jsonb_populate_record(NULL::water_logs, $2::jsonb) AS m WHERE t.date = m.date`)).
		WithArgs(`{"glasses":3}`, `{"date":"2024-05-01"}`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := r.Update(context.Background(), model.TableWaterLogs,
		model.Match{Column: "date", Value: "2024-05-01"}, model.Fields{"glasses": 3.0})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Update_Rejects(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	_, err := r.Update(ctx, model.TableFoods, model.Match{Column: "name", Value: "Elma"}, model.Fields{"name": "Armut"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = r.Update(ctx, model.TableFoods, model.Match{Column: "id", Value: "f1"}, model.Fields{})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipes WHERE id = $1`)).
		WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	n, err := r.Delete(ctx, model.TableRecipes, "r1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipes WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	n, err = r.Delete(ctx, model.TableRecipes, "missing")
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Upsert_OnDate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)

	q := regexp.QuoteMeta(
		`INSERT INTO weight_logs AS t (date, id, weight) SELECT r.date, r.id, r.weight ` +
			`FROM jsonb_populate_record(NULL::weight_logs, $1::jsonb) AS r ` +
			`ON CONFLICT (date) DO UPDATE SET id = EXCLUDED.id, weight = EXCLUDED.weight`)
	mock.ExpectBegin()
	mock.ExpectExec(q).WithArgs(`{"date":"2024-05-01","id":"w1","weight":80}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(q).WithArgs(`{"date":"2024-05-02","id":"w2","weight":79.5}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := r.Upsert(context.Background(), model.TableWeightLogs, []model.Row{
		{"id": "w1", "date": "2024-05-01", "weight": 80.0},
		{"id": "w2", "date": "2024-05-02", "weight": 79.5},
	}, "date")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Upsert_RollbackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO units AS t (abbreviation, id, name)`)).
		WithArgs(`{"abbreviation":"k","id":"u1","name":"Kupa"}`).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := r.Upsert(context.Background(), model.TableUnits, []model.Row{
		{"id": "u1", "name": "Kupa", "abbreviation": "k"},
	}, "id")
	require.Error(t, err)
	require.Contains(t, err.Error(), "row[0]")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepo_Upsert_Rejects(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTableRepo(db)
	ctx := context.Background()

	_, err := r.Upsert(ctx, model.TableFoods, []model.Row{{"id": "f1"}}, "name")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	n, err := r.Upsert(ctx, model.TableFoods, nil, "id")
	require.NoError(t, err)
	require.Zero(t, n)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = r.Upsert(ctx, model.TableWaterLogs, []model.Row{{"id": "w1", "glasses": 1.0}}, "date")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL_ConflictOnlyColumn(t *testing.T) {
	q := upsertSQL("units", []string{"id"}, "id")
	require.Contains(t, q, "ON CONFLICT (id) DO NOTHING")
}
