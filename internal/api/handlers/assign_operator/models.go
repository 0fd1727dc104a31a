package assign_operator

// AssignOperatorRequest HTTP request model
type AssignOperatorRequest struct {
	OperatorID string `json:"operatorId"`
}
