// Command memewall builds the meme wall dataset from the form response
// spreadsheet and previews it.
//
//	memewall [memeTypes|people|countries|templateTypes|languages]
//	memewall build
//	memewall serve
//	memewall version
//
// Without a subcommand the pipeline runs once and prints either the named
// facet collection or the full meme set as JSON. build writes the dataset
// and index files for the static site; serve previews a built dataset.
package main
