package requests

// Delete requests removal of the confession authorized by the deletion code
type Delete struct {
	DeletionCode string `json:"deletionCode"`
}
