package dto

type PaymentConfirmedRequest struct {
	PaymentReference string `json:"payment_reference"`
}

type ApprovalRequest struct {
	BankID  string `json:"bank_id"`
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

type DisputeRequest struct {
	RaisedBy string `json:"raised_by"`
	Reason   string `json:"reason"`
}

type ReleaseResponse struct {
	OrderID         string `json:"order_id"`
	Milestone       string `json:"milestone"`
	Tranche         string `json:"tranche"`
	Amount          string `json:"amount"`
	SettlementRef   string `json:"settlement_ref"`
	Status          string `json:"status"`
	AlreadyReleased bool   `json:"already_released"`
}

type ApprovalResponse struct {
	OrderID            string `json:"order_id"`
	ApprovalID         string `json:"approval_id"`
	Status             string `json:"status"`
	BuyerBankApproved  bool   `json:"buyer_bank_approved"`
	SellerBankApproved bool   `json:"seller_bank_approved"`
	Transitioned       bool   `json:"transitioned"`
}

type ReleaseView struct {
	Tranche       string `json:"tranche"`
	State         string `json:"state"`
	Amount        string `json:"amount"`
	SettlementRef string `json:"settlement_ref,omitempty"`
	Attempts      int    `json:"attempts"`
	LastError     string `json:"last_error,omitempty"`
}

type DisputeView struct {
	DisputeID      string `json:"dispute_id"`
	RaisedBy       string `json:"raised_by"`
	Reason         string `json:"reason"`
	Status         string `json:"status"`
	SettledAmount  string `json:"settled_amount"`
	DisputedAmount string `json:"disputed_amount"`
}

type OrderStateResponse struct {
	OrderID            string        `json:"order_id"`
	Code               string        `json:"code"`
	Status             string        `json:"status"`
	Total              string        `json:"total"`
	Currency           string        `json:"currency"`
	BuyerBankApproved  bool          `json:"buyer_bank_approved"`
	SellerBankApproved bool          `json:"seller_bank_approved"`
	PaymentReference   string        `json:"payment_reference,omitempty"`
	FirstTrancheRef    string        `json:"first_tranche_ref,omitempty"`
	SecondTrancheRef   string        `json:"second_tranche_ref,omitempty"`
	ReleasedAmount     string        `json:"released_amount"`
	Frozen             bool          `json:"frozen"`
	PartiallySettled   bool          `json:"partially_settled"`
	Releases           []ReleaseView `json:"releases"`
	OpenDispute        *DisputeView  `json:"open_dispute,omitempty"`
}

type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	OrderID   string            `json:"order_id,omitempty"`
	Retryable bool              `json:"retryable"`
	Context   map[string]string `json:"context,omitempty"`
}
