// Package models holds the GORM persistence models backing the sync
// engine's tables. Domain entities stay free of ORM tags; the mappers in
// this package translate between the two, and repositories only ever
// touch these models.
//
// sync.go defines the Integration, Product, Order and SyncLog models.
package models
