package swap

import (
	"encoding/json"

	"swaphelper/internal/txbuilder"
)

// SwapRequest is the shared input of the swap operations. Quantities are
// integers in the token's smallest unit, decimal or 0x-hex.
type SwapRequest struct {
	WalletAddress       string  `json:"walletAddress"`
	FromContractAddress string  `json:"fromContractAddress"`
	ToContractAddress   string  `json:"toContractAddress"`
	FromContractDecimal uint8   `json:"fromContractDecimal"`
	ToContractDecimal   uint8   `json:"toContractDecimal"`
	FromQuantity        string  `json:"fromQuantity"`
	ToQuantity          string  `json:"toQuantity,omitempty"`
	SlippageTolerance   *uint32 `json:"slippageTolerance,omitempty"`
}

// ApprovalRequest asks whether the router may spend FromQuantity of the
// input token on the wallet's behalf.
type ApprovalRequest struct {
	FromContractAddress string `json:"fromContractAddress"`
	WalletAddress       string `json:"walletAddress"`
	FromQuantity        string `json:"fromQuantity"`
}

type BalanceRequest struct {
	TokenAddress     string `json:"tokenAddress"`
	WalletAddress    string `json:"walletAddress"`
	RequiredQuantity string `json:"requiredQuantity,omitempty"`
}

type ExchangeRate struct {
	ToTokenAmount   string `json:"toTokenAmount"`
	FromTokenAmount string `json:"fromTokenAmount"`
	EstimatedGas    uint64 `json:"estimatedGas"`
}

type EstimatedGas struct {
	EstimatedGas uint64 `json:"estimatedGas"`
}

type Balance struct {
	Token     string `json:"token"`
	Wallet    string `json:"wallet"`
	Native    bool   `json:"native"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// ApprovalResult is either already approved or carries the approve
// transaction to sign. It encodes as JSON true in the first case.
type ApprovalResult struct {
	Approved    bool
	Transaction *txbuilder.RawTransaction
}

func (r ApprovalResult) MarshalJSON() ([]byte, error) {
	if r.Approved || r.Transaction == nil {
		return []byte("true"), nil
	}
	return json.Marshal(r.Transaction)
}
