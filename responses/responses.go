package responses

import (
	"github.com/hushtape/confessionserver/pkg/confession"
)

// Upload - the create reply. DeletionCode appears here and nowhere else.
type Upload struct {
	Message      string `json:"message"`
	DeletionCode string `json:"deletionCode"`
}

// Message - a plain success message
type Message struct {
	Message string `json:"message"`
}

// Confessions - one page of confessions, newest first
type Confessions struct {
	Confessions []confession.Confession `json:"confessions"`
}

// Results - confessions matching a search fragment
type Results struct {
	Results []confession.Confession `json:"results"`
}
