package handler

// Request and response bodies for the console API.

// RoutingRequest selects routing levels. When RoutingCode is set it wins;
// otherwise each non-empty level is applied top-down, and setting a level
// clears everything beneath it.
type RoutingRequest struct {
	RoutingCode string `json:"routing_code" example:"FINANCE-PAYMENT-MT940"`
	Department  string `json:"department" example:"FINANCE"`
	Process     string `json:"process" example:"PAYMENT"`
	FileType    string `json:"file_type" example:"MT940"`
}

// SubmitRequest starts an upload batch.
type SubmitRequest struct {
	Priority string `json:"priority" example:"normal"`
	Notes    string `json:"notes" example:"Month-end statements"`
}

// CancelResponse reports whether a running batch was asked to stop.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}
