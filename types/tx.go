package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxRequest is an unsigned contract call ready to hand to a wallet
type TxRequest struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	Method   string
	// Deadline is the unix time after which the router rejects the call, or
	// zero when the call has none
	Deadline uint64
}

// CallMsg converts the request for eth_call and eth_estimateGas
func (t *TxRequest) CallMsg() ethereum.CallMsg {
	to := t.To
	return ethereum.CallMsg{
		From:  t.From,
		To:    &to,
		Value: t.value(),
		Data:  t.Data,
	}
}

func (t *TxRequest) value() *big.Int {
	if t.Value == nil {
		return new(big.Int)
	}
	return t.Value
}

type txRequestJSON struct {
	From     *common.Address `json:"from,omitempty"`
	To       common.Address  `json:"to"`
	Data     hexutil.Bytes   `json:"data"`
	Value    *hexutil.Big    `json:"value"`
	Method   string          `json:"method,omitempty"`
	Deadline uint64          `json:"deadline,omitempty"`
}

// MarshalJSON encodes integers as hex quantities, the form wallets expect
func (t TxRequest) MarshalJSON() ([]byte, error) {
	enc := txRequestJSON{
		To:       t.To,
		Data:     t.Data,
		Value:    (*hexutil.Big)(t.value()),
		Method:   t.Method,
		Deadline: t.Deadline,
	}
	if t.From != (common.Address{}) {
		from := t.From
		enc.From = &from
	}
	return json.Marshal(enc)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (t *TxRequest) UnmarshalJSON(data []byte) error {
	var dec txRequestJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	t.To = dec.To
	t.Data = dec.Data
	t.Method = dec.Method
	t.Deadline = dec.Deadline
	t.From = common.Address{}
	if dec.From != nil {
		t.From = *dec.From
	}
	t.Value = new(big.Int)
	if dec.Value != nil {
		t.Value = dec.Value.ToInt()
	}
	return nil
}
