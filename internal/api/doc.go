// Package api is the HTTP client for the bookstore REST backend.
//
// Every response is wrapped in an envelope:
//
//	{"code": 0, "message": "ok", "data": {...}}
//
// A zero code means success and data is decoded into the caller's value.
// Failures come back as *Error, classified by Kind:
//
//   - KindNetwork: no response (refused, timed out, reset)
//   - KindUnauthorized: HTTP 401; when the request carried a bearer token the
//     client's unauthorized handler runs so the session can tear itself down
//   - KindForbidden, KindNotFound, KindServer: generic messages, the server
//     text is not shown
//   - KindBusiness: a 4xx or a non-zero envelope code; the server message is
//     shown verbatim
//
// The storefront and admin console are served from different base URLs, so a
// program builds one Client per surface. Client satisfies both Storefront and
// Admin; callers depend on whichever interface they need.
//
// Prices are decoded into shopspring/decimal values. Book.SalePrice applies
// the discount rule used everywhere in folio: Discount is the percentage of
// the list price charged, and 0 or 100 mean no discount.
package api
