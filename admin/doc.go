// Package admin is the pie shop back-office: the optimistic pie editor and
// the JSON handlers for pies, categories and orders.
//
// A pie edit submits the values the editor was shown together with the row
// version they were loaded at. When someone else saved the pie in between,
// the edit is refused and the result carries the current database values
// and a "Current value" message for every contested field, so that saving
// again stores the shown values.
package admin
