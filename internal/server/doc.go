// Package server exposes loaded galleries over a JSON HTTP API.
//
// Routes are served by a chi router:
//
//	GET    /healthz
//	GET    /api/galleries
//	GET    /api/galleries/{name}/categories
//	GET    /api/galleries/{name}/records
//	GET    /api/galleries/{name}/window
//	GET    /api/galleries/{name}/search
//	GET    /api/galleries/{name}/records/{id}
//	GET    /api/unlock
//	POST   /api/unlock
//	DELETE /api/unlock
//	GET    /api/prefs/{key}
//	PUT    /api/prefs/{key}
//	DELETE /api/prefs/{key}
//
// A gallery whose load failed still answers its listing routes with the
// load_error state, so clients can show their error view. Galleries can be
// replaced while the server runs, which is how watch mode reloads them.
package server
