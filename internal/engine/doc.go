// Package engine parses pipeline descriptions into stage graphs and runs
// them.
//
// A description is JSON: {"pipeline": [...]} or a bare array. Stages given
// as plain file names are resolved to readers (leading stages) or a writer
// (last stage) by extension. Object stages carry "type", optional "tag" and
// "inputs", and options whose order is preserved.
//
// Execute runs the graph once in dependency order with independent branches
// in parallel; ExecuteStreamed pushes bounded chunks from each reader through
// the graph when every stage streams. Canonical, Metadata and Schema render
// the documents exposed by the root package.
package engine
