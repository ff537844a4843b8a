// Package mongo implements storage.ObjectStore on a MongoDB
// collection: the shared-server backend.
//
// One document per stored object, with the logical path as _id. Writes
// are full-document upserts, which makes them both atomic from the
// reader's perspective and idempotent under the assembler's retry loop
// (a retried write of the same batch replaces the document with
// identical content). Byte-range reads are served by slicing the
// fetched blob client-side.
package mongo
