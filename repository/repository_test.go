/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/tomoncle/routinedb/database"
	"github.com/tomoncle/routinedb/types"
)

type Order struct {
	ID           int64       `bun:"id"`
	CustomerName string      `bun:"customer_name"`
	Status       orderStatus `bun:"-"`
}

type OrderView struct {
	ID           int64  `bun:"id"`
	CustomerName string `bun:"customer_name"`
	LineCount    int    `bun:"line_count"`
	TotalCount   int64  `bun:"total_count"`
}

type OrderText struct {
	ID          int64  `bun:"id"`
	Description string `bun:"description"`
	CultureID   string `bun:"culture_id"`
}

type orderCriteria struct {
	CustomerName string
}

// countingFactory counts connections returned by repositories.
type countingFactory struct {
	database.ConnectionFactory
	opened, closed int
}

func (f *countingFactory) Open(ctx context.Context, key string) (database.Connection, error) {
	c, err := f.ConnectionFactory.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	f.opened++
	return &countingConn{Connection: c, f: f}, nil
}

type countingConn struct {
	database.Connection
	f *countingFactory
}

func (c *countingConn) Close() error {
	c.f.closed++
	return c.Connection.Close()
}

func newMockFactory(t *testing.T) (*countingFactory, *database.Factory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	f := database.NewFactoryFromDB("main", db, pgdialect.New())
	t.Cleanup(func() { _ = f.Close() })
	return &countingFactory{ConnectionFactory: f}, f, mock
}

// recordingHook keeps the durations it observed.
type recordingHook struct {
	durations []time.Duration
	events    []*database.CommandEvent
}

func (h *recordingHook) BeforeCommand(ctx context.Context, _ *database.CommandEvent) context.Context {
	return ctx
}

func (h *recordingHook) AfterCommand(_ context.Context, event *database.CommandEvent) {
	time.Sleep(time.Millisecond)
	h.durations = append(h.durations, event.Duration())
	h.events = append(h.events, event)
}

func functionSettings() Settings {
	s := DefaultSettings()
	s.Routines.Type = StoredFunction
	return s
}

func TestGetByIDResolvesRoutine(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from app.fn_order_get_by_id(@id)").
		WithArgs(sql.Named("id", int64(7))).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name"}).AddRow(int64(7), "Ann"))

	repo := New[Order, int64](cf, WithSettings(appSettings()))
	order, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, "Ann", order.CustomerName)

	assert.Equal(t, 1, cf.opened)
	assert.Equal(t, 1, cf.closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNoRow(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from order_get_by_id(@id)").
		WithArgs(sql.Named("id", int64(8))).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name"}))

	repo := New[Order, int64](cf, WithSettings(functionSettings()))
	order, err := repo.GetByID(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithAutoIdentity(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("call order_create(@customer_name, @status)").
		WithArgs(sql.Named("customer_name", "Ann"), sql.Named("status", "Active")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), "2024-05-17"))

	repo := New[Order, int64](cf)
	order := &Order{ID: 99, CustomerName: "Ann", Status: statusActive}
	id, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), order.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutIdentityRow(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("call order_create(@customer_name, @status)").
		WithArgs(sql.Named("customer_name", "Ann"), sql.Named("status", "Pending")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := New[Order, int64](cf)
	_, err := repo.Create(context.Background(), &Order{CustomerName: "Ann"})
	assert.ErrorIs(t, err, ErrNoIdentity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSuppliedIdentity(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectExec("call order_create(@id, @customer_name, @status)").
		WithArgs(sql.Named("id", int64(5)), sql.Named("customer_name", "Bob"), sql.Named("status", "Pending")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := DefaultSettings()
	s.AutoIdentity = false
	repo := New[Order, int64](cf, WithSettings(s))

	id, err := repo.Create(context.Background(), &Order{ID: 5, CustomerName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	_, err = repo.Create(context.Background(), &Order{CustomerName: "Bob"})
	assert.ErrorIs(t, err, ErrIdentityRequired)

	_, err = repo.Create(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilEntity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAndDelete(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectExec("call order_update(@id, @customer_name)").
		WithArgs(sql.Named("id", int64(3)), sql.Named("customer_name", "Cy")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("call order_patch_status(@id, @status)").
		WithArgs(sql.Named("id", int64(3)), sql.Named("status", "Active")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("call order_delete_by_id(@id)").
		WithArgs(sql.Named("id", int64(3))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("call order_delete_many(@customer_name)").
		WithArgs(sql.Named("customer_name", "Cy")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	s := DefaultSettings()
	s.Actions.Update = s.Actions.Update.Excluding("Status")
	repo := New[Order, int64](cf, WithSettings(s))
	ctx := context.Background()

	n, err := repo.Update(ctx, &Order{ID: 3, CustomerName: "Cy", Status: statusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.PatchProperty(ctx, 3, "Status", statusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteMany(ctx, orderCriteria{CustomerName: "Cy"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	assert.Equal(t, 4, cf.closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetManyPositionalArrays(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from order_get_many($1)").
		WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name"}).
			AddRow(int64(1), "Ann").
			AddRow(int64(2), "Bob"))

	s := functionSettings()
	s.Parameters = PostgresParameterConvention()
	repo := New[Order, int64](cf, WithSettings(s))

	orders, err := repo.GetMany(context.Background(), map[string]any{"Ids": []int64{1, 2}})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Bob", orders[1].CustomerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPageExtended(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from order_get_many_extended_paged(@customer_name, @offset, @limit)").
		WithArgs(sql.Named("customer_name", "Ann"), sql.Named("offset", int64(20)), sql.Named("limit", int64(10))).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name", "line_count", "total_count"}).
			AddRow(int64(21), "Ann", int64(3), int64(25)))

	repo := New[Order, int64](cf, WithSettings(functionSettings()))
	page, err := GetPageExtended[OrderView](context.Background(), repo,
		types.NewPageQuery(orderCriteria{CustomerName: "Ann"}, 3, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Items[0].LineCount)
	require.NotNil(t, page.TotalItemCount)
	assert.Equal(t, int64(25), *page.TotalItemCount)
	assert.Equal(t, int64(3), page.PageCount())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPageWithoutRows(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from order_get_many_paged(@offset, @limit)").
		WithArgs(sql.Named("offset", int64(0)), sql.Named("limit", int64(10))).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_name"}))

	repo := New[Order, int64](cf, WithSettings(functionSettings()))
	page, err := repo.GetPage(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.TotalItemCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslatedReads(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("select * from order_get_by_id_translated(@id, @culture_id)").
		WithArgs(sql.Named("id", int64(4)), sql.Named("culture_id", "de-DE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "culture_id"}).AddRow(int64(4), "Bestellung", "de-DE"))
	mock.ExpectQuery("select * from order_get_many_extended_translated(@customer_name, @culture_id)").
		WithArgs(sql.Named("customer_name", "Ann"), sql.Named("culture_id", "fr-FR")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description"}).AddRow(int64(4), "Commande"))

	repo := NewTranslated[Order, OrderText, int64](cf, WithSettings(functionSettings()))
	text, err := repo.GetByIDTranslated(context.Background(), 4, "de-DE")
	require.NoError(t, err)
	assert.Equal(t, "Bestellung", text.Description)

	texts, err := GetManyExtendedTranslated[OrderText](context.Background(), repo.Repository, orderCriteria{CustomerName: "Ann"}, "fr-FR")
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, "Commande", texts[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStandaloneClosesOnFailure(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	boom := errors.New("boom")
	mock.ExpectQuery("select * from order_get_many()").WillReturnError(boom)

	stats := database.NewStatsHook()
	repo := New[Order, int64](cf, WithSettings(functionSettings()), WithHooks(stats))
	_, err := repo.GetMany(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, cf.opened)
	assert.Equal(t, 1, cf.closed)
	assert.Equal(t, int64(1), stats.Snapshot().Failed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStateTranslator(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectQuery("call order_create(@customer_name, @status)").
		WithArgs(sql.Named("customer_name", "Ann"), sql.Named("status", "Pending")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	repo := New[Order, int64](cf, WithErrorTranslator(NewSQLStateTranslator()))
	_, err := repo.Create(context.Background(), &Order{CustomerName: "Ann"})

	var routineErr *RoutineError
	require.ErrorAs(t, err, &routineErr)
	assert.Equal(t, database.DuplicateKeyErr, routineErr.Kind)
	assert.Equal(t, "23505", routineErr.SQLState)
	assert.Equal(t, "order_create", routineErr.Routine)
	assert.Equal(t, "Create", routineErr.Action)
	assert.False(t, routineErr.InTransaction)
	assert.ErrorIs(t, err, &RoutineError{Kind: database.DuplicateKeyErr})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipatingRepository(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	failure := &pq.Error{Code: "23503"}
	sentinel := errors.New("order is still referenced")
	mock.ExpectBegin()
	mock.ExpectExec("call order_update(@id, @customer_name, @status)").
		WithArgs(sql.Named("id", int64(9)), sql.Named("customer_name", "Dee"), sql.Named("status", "Pending")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("call order_delete_by_id(@id)").
		WithArgs(sql.Named("id", int64(9))).
		WillReturnError(failure)
	mock.ExpectRollback()

	ctx := context.Background()
	conn, err := cf.Open(ctx, "")
	require.NoError(t, err)
	uow, err := database.Begin(ctx, conn, nil)
	require.NoError(t, err)

	var seen *ExecutionContext
	repo := NewInTransaction[Order, int64](uow, WithErrorTranslator(ErrorTranslatorFunc(func(err error, ec *ExecutionContext) error {
		seen = ec
		return sentinel
	})))
	assert.True(t, repo.InTransaction())

	n, err := repo.Update(ctx, &Order{ID: 9, CustomerName: "Dee"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.DeleteByID(ctx, 9)
	assert.Same(t, sentinel, err)
	require.NotNil(t, seen)
	assert.True(t, seen.InTransaction)
	assert.Same(t, uow, seen.Session)
	assert.Equal(t, "order_delete_by_id", seen.Routine)
	assert.Equal(t, "call order_delete_by_id(@id)", seen.Statement)
	assert.Equal(t, CommandStoredProcedure, seen.CommandType)
	p, ok := seen.Parameter("Id")
	assert.True(t, ok)
	assert.Equal(t, int64(9), p.Value)

	assert.Equal(t, 0, cf.closed)
	assert.Equal(t, "open", uow.State())

	require.NoError(t, uow.Close())
	assert.Equal(t, 1, cf.closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

type namedEntity struct {
	Key string
}

func (namedEntity) EntityName() string { return "Customer" }

func TestRepositoryNaming(t *testing.T) {
	reg := NewRegistry()
	RegisterFor[*Repository[namedEntity, string]](reg, &Configuration{SchemaName: Ptr("crm")})

	repo := New[namedEntity, string](nil, WithRegistry(reg, nil))
	assert.Equal(t, "Customer", repo.EntityName())
	cmd := repo.Command(repo.Settings().Actions.GetById, "", Properties{{Name: "Key", Value: "c-1"}})
	assert.Equal(t, "crm.customer_get_by_id", cmd.Routine)

	repo = New[namedEntity, string](nil, WithEntityName("Client"))
	assert.Equal(t, "Client", repo.EntityName())

	_, err := repo.GetByID(context.Background(), "c-1")
	assert.ErrorIs(t, err, ErrNoFactory)
}

func TestHooksShareCommandDuration(t *testing.T) {
	cf, _, mock := newMockFactory(t)
	mock.ExpectExec("call order_delete_by_id(@id)").
		WithArgs(sql.Named("id", int64(3))).
		WillReturnResult(sqlmock.NewResult(0, 1))

	first, second := &recordingHook{}, &recordingHook{}
	repo := New[Order, int64](cf, WithHooks(first, second))
	_, err := repo.DeleteByID(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, first.events, 1)
	event := first.events[0]
	assert.False(t, event.EndTime.IsZero())
	assert.False(t, event.EndTime.Before(event.StartTime))
	assert.Equal(t, first.durations, second.durations)
	require.NoError(t, mock.ExpectationsWereMet())
}
