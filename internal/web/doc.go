// Package web serves the query forms and result list in a browser.
//
// Pages are rendered on the server with html/template from embedded templates and share a
// single [tasks.Controller] and [tasks.Downloader] with the rest of the process.
//
// Routes
//
//	GET  /         → page for the current mode; ?mode=song|values|genre switches forms
//	POST /query    → validates the form, runs the query chain, renders the outcome
//	POST /download → streams "<title>.mp3" as an attachment
//	GET  /healthz  → JSON status with backend URL and active download count
//
// Numeric inputs are masked twice: in the browser on each keystroke, and again by the
// query handler with [models.MaskNumeric] before parsing.
package web
