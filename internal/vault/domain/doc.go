// Package domain defines the vault data model: encrypted records, the per-category
// secret payloads sealed inside them, unlock sessions and the batch import/export
// shapes. Secret payloads never appear in Record; only their sealed envelope does.
package domain
