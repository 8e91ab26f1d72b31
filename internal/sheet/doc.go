// Package sheet fetches the form-responses spreadsheet as a CSV export and
// maps its columns onto records.Raw.
//
// Headers are normalized to camelCase ("Upload file" → "uploadFile") before
// field lookup; columns with no dedicated field are kept in Raw.Extra.
package sheet
