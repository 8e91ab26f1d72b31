// Package glossary loads the metadata hierarchies that group facet values
// (content types, template types) into named sections for the UI.
//
// A hierarchy is maintained by editors as a Google Doc: each heading is a
// group and each bullet below it a member, written as "Term: definition".
// Values that appear in no group fall into OtherGroup.
package glossary
