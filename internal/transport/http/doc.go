// Package http implements the HTTP handlers of the report server.
// Handlers stay thin: they parse and validate query parameters, call the
// service layer and render the result.
//
// # Endpoints
//
//	GET /api/reports/price-changes?year=&count=&format=text|json|csv|xlsx
//	GET /api/health
//	GET /api/health/ready
//	GET /api/health/live
//	GET /api/version
//
// # Error Handling
//
// Every error response is an RFC 7807 problem document written by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/corrupted",
//	    "title": "Malformed Dataset Record",
//	    "status": 422,
//	    "detail": "row 1841: new_price \"N/A\" is not a decimal",
//	    "instance": "/api/reports/price-changes",
//	    "trace_id": "5b0c..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces in this package.
package http
