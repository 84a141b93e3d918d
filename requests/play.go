package requests

// Play reports one playback of the confession with the given id
type Play struct {
	ID int64 `json:"id"`
}
