// Package matrix computes the variant catalog of a product from its variant
// categories and reconciles it against the variants already persisted.
//
// Everything in this package is a pure function over snapshots: callers load
// categories, attributes and variants inside a transaction, call Reconcile,
// and hand the resulting Plan to the store. Nothing here performs I/O.
//
// A variant is identified by its Signature, the sorted set of attribute ids
// linked to it. Display names, prices and stock never take part in matching.
package matrix
