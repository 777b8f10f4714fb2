package settlement

type ReleaseRequest struct {
	OrderID           string `json:"order_id"`
	TrancheLabel      string `json:"tranche_label"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	SettlementAddress string `json:"settlement_address,omitempty"`
}

type ReleaseResponse struct {
	SettlementRef string `json:"settlement_ref"`
	Status        string `json:"status,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
