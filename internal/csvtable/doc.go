// Package csvtable turns a CSV document fetched from a Source into a
// Snapshot: the header line becomes the column list and every following
// record becomes a Row holding one value per column, in file order.
//
// # Pipeline
//
//  1. [Service.Load] asks the [Source] for the payload (HTTP, file or S3)
//  2. The payload is capped at the configured size and sniffed so binary
//     files are rejected before parsing
//  3. [NewTextReader] strips a UTF-8 BOM and replaces invalid UTF-8 bytes
//  4. [Parse] reads the records with encoding/csv and builds the Snapshot
//
// Concurrent Load calls for the same source share one fetch. Each success
// replaces the snapshot returned by [Service.Latest]; nothing is merged.
//
// # Errors
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - SRC001-SRC005: the source could not be read
//   - CSV001-CSV004: the payload is not a usable CSV document
//   - REQ001-REQ002: the request was cancelled or timed out
package csvtable
