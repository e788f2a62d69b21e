// Package receipt turns point-of-sale orders into fiscal receipts. It
// drives the device command catalog through a fixed lifecycle with an
// idempotence guard, connectivity pre-checks and a stuck-receipt
// recovery chain.
package receipt
