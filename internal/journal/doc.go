// Package journal keeps a SQLite record of every diagnostic command the
// dispatcher accepts, from issue to terminal outcome.
//
// A row is written as pending when the request is issued and updated once
// with its status, result code, error text and the final representation.
// Observer adapts a Repository to diagnostics.Observer so the dispatcher
// feeds the journal directly.
package journal
