// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no GORM tags; every model here converts to and from its
// domain counterpart with ToDomain and FromDomain.
//
// Structure:
// - base.go: shared columns (BaseModel, AggregateModel)
// - transfer.go: transfer requests, items and the quantity change log
// - inventory.go: balances, movements, movement types and batches
// - reference.go: products, accounting periods and tenant settings read by the workflow
package models
