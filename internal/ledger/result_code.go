package ledger

// Result codes mirror the ledger collaborator's reply contract from
// spec.md §4.6: a shared success code and per-event error codes.
const (
	SuccessCode                   = 0x000000
	ErrorCodeNotLogin             = 0x000001
	ErrorCodeUnknownMsg           = 0x000002
	ErrorCodeLoginAccountNotExist = 0x000003
	ErrorCodeLoginPswdMismatch    = 0x000004
	ErrorCodeRegisterAccountExist = 0x000005
	ErrorCodeRemoveRecordNotExist = 0x000006
)
