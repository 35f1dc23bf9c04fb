package app

// Protocol result shapes. Field names and presence follow the Payme merchant
// API exactly: timestamps are always emitted, 0 meaning "not set".

type CheckPerformTransactionResult struct {
	Allow bool `json:"allow"`
}

type CreateTransactionResult struct {
	Transaction string `json:"transaction"`
	State       int32  `json:"state"`
	CreateTime  int64  `json:"create_time"`
}

type PerformTransactionResult struct {
	Transaction string `json:"transaction"`
	State       int32  `json:"state"`
	PerformTime int64  `json:"perform_time"`
}

type CancelTransactionResult struct {
	Transaction string `json:"transaction"`
	State       int32  `json:"state"`
	CancelTime  int64  `json:"cancel_time"`
}

type CheckTransactionResult struct {
	Transaction string `json:"transaction"`
	State       int32  `json:"state"`
	Reason      *int32 `json:"reason"`
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
}

// StatementEntry is one row of a GetStatement response: the per-transaction
// fields of CheckTransaction plus amount and the account mapping.
type StatementEntry struct {
	Transaction string            `json:"transaction"`
	Amount      int64             `json:"amount"`
	Account     map[string]string `json:"account"`
	Reason      *int32            `json:"reason"`
	State       int32             `json:"state"`
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
}

type GetStatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}
