// Package channels implements the channel and version lifecycle: quota and
// uniqueness enforcement on write, referential-integrity gates on delete,
// and the ordering contracts between the blob backend and the database that
// keep the two storage systems mutually consistent. Version content is
// encrypted with the organization's active key before it reaches any
// backend and decrypted on read-back.
package channels
