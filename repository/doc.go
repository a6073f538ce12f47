// Package repository maps entity operations onto stored routines named by
// convention. A Repository for Order resolves GetByID to a routine such as
// app.order_get_by_id, binds the identity as its parameter and maps the
// returned rows back into Order values.
package repository
