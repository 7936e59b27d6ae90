package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// MatchRequest is the body of POST /v1/match. galleryId may also be sent as
// a JSON number and key as imageKey.
type MatchRequest struct {
	GalleryID string `json:"galleryId" example:"42"`
	Key       string `json:"key" example:"selfies/2024/abc.jpg"`
}

// MatchResponse lists the matching photo ids in ascending order
type MatchResponse struct {
	Message string  `json:"message" example:"Request processed successfully"`
	Match   []int64 `json:"match" example:"[1001,1042]"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error" example:"galleryId is required"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Selfie Match API",
		Version:     "v1.0.0",
		Description: "Finds the photos of an event gallery that contain the person in a selfie",
		Host:        "localhost:3000",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/match
		endpoint.New(
			endpoint.POST,
			"/v1/match",
			endpoint.WithTags("Match"),
			endpoint.WithSummary("Match a selfie against a gallery"),
			endpoint.WithDescription("Downloads the selfie stored under key, extracts every face and returns the gallery photos containing any of them."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(MatchRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchResponse{}, "200", "Request processed successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Error: "galleryId is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Error: "Error downloading the image"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the gallery catalog database."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Catalog reachable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Catalog unreachable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
