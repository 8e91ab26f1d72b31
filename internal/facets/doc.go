// Package facets aggregates the filterable categories of a meme set: the
// distinct values of each multi-value field, how many memes carry each value,
// and, for content and template types, the glossary group each value belongs
// to.
package facets
