// Package qa runs the question-answering exchange for a single video.
//
// A Controller moves idle → submitting → answered or failed, keeps at most
// one result, and admits at most one request at a time. Dispose bumps a
// generation counter so a result that arrives after teardown is discarded
// instead of applied.
package qa
