package domain

import (
	"fmt"
	"time"
)

// Route is a standing origin → destination lane that vendors bid on.
//
// Origin and Destination are snapshots of the catalog records taken when the
// route was created. They are not refreshed if the catalog changes later.
type Route struct {
	ID            string    `json:"id"`
	OriginID      string    `json:"originId"`
	DestinationID string    `json:"destinationId"`
	Origin        City      `json:"origin"`
	Destination   City      `json:"destination"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RouteID derives the lane id for an (origin, destination) pair.
func RouteID(originID, destinationID string) string {
	return fmt.Sprintf("route-%s-%s", originID, destinationID)
}

// CreateRouteRequest is the body for POST /v1/admin/routes.
type CreateRouteRequest struct {
	OriginID      string `json:"originId"`
	DestinationID string `json:"destinationId"`
}
