// Package http serves the name queries over HTTP. Handlers parse the
// request, call the names service and render its Result envelope as JSON.
// Every failure goes through errors.ErrorHandler, so malformed input and
// validation problems become 400 problem documents listing each problem,
// and a query the loaded dataset cannot answer becomes a 503.
//
// # Routes
//
//	GET  /names/{name}          name profile
//	GET  /search                name search, list predicates repeated or comma-separated
//	GET  /peaks                 peak years, or raw yearly counts with raw=true
//	POST /predict-gender        single gender prediction
//	POST /predict-gender-batch  gender classification of many names
//	POST /predict-age           birth-year band of one (name, sex)
//	POST /predict-age-batch     birth-year bands of many (name, sex) pairs
//
// The application mounts these under its API base path next to the
// health endpoint.
package http
