package handlers

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RespTransaction wraps a single TransactionItem.
type RespTransaction struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    TransactionItem `json:"data"`
}

// RespListTransactions wraps ListTransactionsResponse.
type RespListTransactions struct {
	Success bool                     `json:"success"`
	Data    ListTransactionsResponse `json:"data"`
}

// RespUserTransactions wraps the caller's transactions.
type RespUserTransactions struct {
	Success bool              `json:"success"`
	Data    []TransactionItem `json:"data"`
}

type RespMyPurchases struct {
	Success bool                `json:"success"`
	Data    MyPurchasesResponse `json:"data"`
}

type RespSubjectAccess struct {
	Success bool                  `json:"success"`
	Data    SubjectAccessResponse `json:"data"`
}
