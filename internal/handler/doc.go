// Package handler contains the HTTP request handlers for the omok API.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc, a function with the right signature
// that automatically satisfies the Handler interface. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, JSON body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers should NOT contain business logic. They are the "glue" between HTTP and the services.
package handler
