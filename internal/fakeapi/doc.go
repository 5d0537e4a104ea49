// Package fakeapi is an in-memory bookstore backend speaking the same
// envelope, status codes and routes as the production service. It backs the
// end-to-end tests and the `folio demo` command.
//
// Every response is {"code", "message", "data"}. Validation problems are
// HTTP 400 and credential failures HTTP 401, both with code -1. Business
// rule violations (duplicate names, insufficient stock, paying twice) are
// HTTP 200 with code -1 so clients surface the message verbatim.
//
// Nothing is persisted and there is no inventory reservation: stock only
// moves when an order is paid.
package fakeapi
