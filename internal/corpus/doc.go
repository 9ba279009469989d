// Package corpus discovers and reads the documents eligible for indexing:
// prior decisions, general docs and knowledge-base entries, each selected by a
// glob pattern relative to the project root.
package corpus
