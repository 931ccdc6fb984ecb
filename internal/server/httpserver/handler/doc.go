// Package handler implements the tokguard HTTP endpoints.
//
// Browser pages (form, GET link, login and logout) work on the session
// and guard placed in the request by the server middleware. The admin and
// health endpoints answer with the JSON Response envelope.
package handler
