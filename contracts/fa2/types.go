// Package fa2 defines the parameter types shared by the FA2 (TZIP-12)
// token contracts.
package fa2

import (
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

// Error values raised by the FA2 contracts.
var (
	ErrInvalidCaller       = micheline.NewString("INVALID_CALLER")
	ErrNotOwner            = micheline.NewString("FA2_NOT_OWNER")
	ErrNotOperator         = micheline.NewString("FA2_NOT_OPERATOR")
	ErrInsufficientBalance = micheline.NewString("FA2_INSUFFICIENT_BALANCE")
	ErrTokenUndefined      = micheline.NewString("FA2_TOKEN_UNDEFINED")
	ErrSignerNotFrom       = micheline.NewString("SIGNER_NOT_FROM")
	ErrContractPaused      = micheline.NewString("CONTRACT_PAUSED")
	ErrNoTransfer          = micheline.NewString("NO_TRANSFER")
)

// TransferDestination is one transfer of a transfer batch.
type TransferDestination struct {
	To      tezos.Address
	TokenID tezos.Nat
	Amount  tezos.Nat
}

func TransferDestinationType() micheline.Prim {
	return micheline.TypePair(
		micheline.TypeAnno(micheline.T_ADDRESS, "%to_"),
		micheline.TypeAnno(micheline.T_NAT, "%token_id"),
		micheline.TypeAnno(micheline.T_NAT, "%amount"),
	)
}

func (d TransferDestination) ToMich() micheline.Prim {
	return micheline.NewPair(d.To.ToMich(), d.TokenID.ToMich(), d.Amount.ToMich())
}

func (d TransferDestination) Equal(o TransferDestination) bool {
	return micheline.Equal(d.ToMich(), o.ToMich())
}

func TransferDestinationFromMich(p micheline.Prim) (TransferDestination, error) {
	var d TransferDestination
	fields, err := p.Flatten(3)
	if err != nil {
		return d, err
	}
	if d.To, err = tezos.AddressFromMich(fields[0]); err != nil {
		return d, err
	}
	if d.TokenID, err = tezos.NatFromMich(fields[1]); err != nil {
		return d, err
	}
	d.Amount, err = tezos.NatFromMich(fields[2])
	return d, err
}

// TransferParam moves tokens from one owner to several destinations.
type TransferParam struct {
	From tezos.Address
	Txs  []TransferDestination
}

func TransferParamType() micheline.Prim {
	return micheline.TypePair(
		micheline.TypeAnno(micheline.T_ADDRESS, "%from_"),
		micheline.TypeAnno(micheline.T_LIST, "%txs", TransferDestinationType()),
	)
}

// TransferParamsType is the type of the transfer entrypoint parameter.
func TransferParamsType() micheline.Prim {
	return micheline.TypeList(TransferParamType())
}

func (t TransferParam) ToMich() micheline.Prim {
	return micheline.NewPair(t.From.ToMich(), tezos.ListToMich(t.Txs, TransferDestination.ToMich))
}

func (t TransferParam) Equal(o TransferParam) bool {
	return micheline.Equal(t.ToMich(), o.ToMich())
}

func TransferParamFromMich(p micheline.Prim) (TransferParam, error) {
	var t TransferParam
	fields, err := p.Flatten(2)
	if err != nil {
		return t, err
	}
	if t.From, err = tezos.AddressFromMich(fields[0]); err != nil {
		return t, err
	}
	t.Txs, err = tezos.ListFromMich(fields[1], TransferDestinationFromMich)
	return t, err
}

// TransferParamsToMich encodes a transfer batch.
func TransferParamsToMich(tps []TransferParam) micheline.Prim {
	return tezos.ListToMich(tps, TransferParam.ToMich)
}

// Transfer is a shorthand for a single destination transfer.
func Transfer(from, to tezos.Address, tokenID, amount tezos.Nat) TransferParam {
	return TransferParam{From: from, Txs: []TransferDestination{{To: to, TokenID: tokenID, Amount: amount}}}
}

// OperatorParam allows Operator to transfer TokenID on behalf of Owner.
type OperatorParam struct {
	Owner    tezos.Address
	Operator tezos.Address
	TokenID  tezos.Nat
}

func (o OperatorParam) ToMich() micheline.Prim {
	return micheline.NewPair(o.Owner.ToMich(), o.Operator.ToMich(), o.TokenID.ToMich())
}

func (o OperatorParam) Equal(p OperatorParam) bool {
	return micheline.Equal(o.ToMich(), p.ToMich())
}

func OperatorParamFromMich(p micheline.Prim) (OperatorParam, error) {
	var o OperatorParam
	fields, err := p.Flatten(3)
	if err != nil {
		return o, err
	}
	if o.Owner, err = tezos.AddressFromMich(fields[0]); err != nil {
		return o, err
	}
	if o.Operator, err = tezos.AddressFromMich(fields[1]); err != nil {
		return o, err
	}
	o.TokenID, err = tezos.NatFromMich(fields[2])
	return o, err
}

// UpdateOperator is the Left (add) or Right (remove) of an operator update.
type UpdateOperator = tezos.Or[OperatorParam, OperatorParam]

func AddOperator(p OperatorParam) UpdateOperator { return tezos.OrLeft[OperatorParam, OperatorParam](p) }

func RemoveOperator(p OperatorParam) UpdateOperator {
	return tezos.OrRight[OperatorParam, OperatorParam](p)
}

func UpdateOperatorsToMich(ups []UpdateOperator) micheline.Prim {
	return tezos.ListToMich(ups, func(u UpdateOperator) micheline.Prim {
		return tezos.OrToMich(u, OperatorParam.ToMich, OperatorParam.ToMich)
	})
}

// OperatorKey is the key of the operator big map.
type OperatorKey struct {
	Operator tezos.Address
	TokenID  tezos.Nat
	Owner    tezos.Address
}

func OperatorKeyType() micheline.Prim {
	return micheline.TypePair(micheline.TypeAddress(), micheline.TypeNat(), micheline.TypeAddress())
}

func (k OperatorKey) ToMich() micheline.Prim {
	return micheline.NewPair(k.Operator.ToMich(), k.TokenID.ToMich(), k.Owner.ToMich())
}

// BalanceOfRequest asks for the balance of Owner in TokenID.
type BalanceOfRequest struct {
	Owner   tezos.Address
	TokenID tezos.Nat
}

func (r BalanceOfRequest) ToMich() micheline.Prim {
	return micheline.NewPair(r.Owner.ToMich(), r.TokenID.ToMich())
}

func (r BalanceOfRequest) Equal(o BalanceOfRequest) bool {
	return micheline.Equal(r.ToMich(), o.ToMich())
}

func BalanceOfRequestFromMich(p micheline.Prim) (BalanceOfRequest, error) {
	var r BalanceOfRequest
	fields, err := p.Flatten(2)
	if err != nil {
		return r, err
	}
	if r.Owner, err = tezos.AddressFromMich(fields[0]); err != nil {
		return r, err
	}
	r.TokenID, err = tezos.NatFromMich(fields[1])
	return r, err
}

func BalanceOfRequestsToMich(reqs []BalanceOfRequest) micheline.Prim {
	return tezos.ListToMich(reqs, BalanceOfRequest.ToMich)
}

type BalanceOfResponse struct {
	Request BalanceOfRequest
	Balance tezos.Nat
}

func (r BalanceOfResponse) ToMich() micheline.Prim {
	return micheline.NewPair(r.Request.ToMich(), r.Balance.ToMich())
}

func BalanceOfResponseFromMich(p micheline.Prim) (BalanceOfResponse, error) {
	var r BalanceOfResponse
	fields, err := p.Flatten(2)
	if err != nil {
		return r, err
	}
	if r.Request, err = BalanceOfRequestFromMich(fields[0]); err != nil {
		return r, err
	}
	r.Balance, err = tezos.NatFromMich(fields[1])
	return r, err
}

// BalanceOfResponsesFromMich decodes the value a balance_of view passes to
// its callback.
func BalanceOfResponsesFromMich(p micheline.Prim) ([]BalanceOfResponse, error) {
	res, err := tezos.ListFromMich(p, BalanceOfResponseFromMich)
	if err != nil {
		return nil, errors.Wrap(err, "invalid balance_of response")
	}
	return res, nil
}

// GaslessParam is a transfer batch signed by the owner of the tokens and
// relayed by someone else.
type GaslessParam struct {
	TransferParams []TransferParam
	UserPK         tezos.Key
	UserSig        tezos.Signature
}

func (g GaslessParam) ToMich() micheline.Prim {
	return micheline.NewPair(TransferParamsToMich(g.TransferParams), g.UserPK.ToMich(), g.UserSig.ToMich())
}

func GaslessParamsToMich(gps []GaslessParam) micheline.Prim {
	return tezos.ListToMich(gps, GaslessParam.ToMich)
}

// Permit is the optional (key, signature) of a one step permit transfer.
type Permit struct {
	Key       tezos.Key
	Signature tezos.Signature
}

func PermitToMich(p tezos.Option[Permit]) micheline.Prim {
	return tezos.OptionToMich(p, func(v Permit) micheline.Prim {
		return micheline.NewPair(v.Key.ToMich(), v.Signature.ToMich())
	})
}
