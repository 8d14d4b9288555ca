// Package search wires feature extraction, a vector store and ranking into
// the two operations exposed to transports: Ingest stores one reference
// image and Query ranks the stored images against an uploaded one.
//
// Failures for one image never abort others: Ingest reports them in its
// outcome, and Batch isolates every item.
package search
