// Package routinedb is the composition root of a stored-routine data layer.
//
//	env, err := routinedb.Setup().
//		FromFile("routinedb.yaml").
//		WithErrorTranslator(repository.NewSQLStateTranslator()).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer env.Close()
//
//	orders := routinedb.NewService[Order, int64](env)
//	order, err := orders.Get(ctx, 42)
//
// Every call resolves a routine name from the entity and the action, for
// example app.fn_order_get_by_id, and maps the returned rows with bun.
package routinedb
