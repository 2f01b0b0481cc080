// Package batch provides the chunked batch processor shared by the bulk
// Gmail tools.
//
// Items are processed in consecutive fixed-size chunks. A chunk is first
// attempted as one call; when that call fails, every item of the chunk is
// retried individually so a single bad item cannot fail the whole batch.
// The final result partitions every input item into exactly one of
// successes or failures.
package batch
