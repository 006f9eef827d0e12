// Package nft binds the nft contract, a multi asset FA2 contract where each
// token has a single owner and carries royalties.
package nft

import (
	"context"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/fa2"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
)

// storage fields
const (
	fieldOwner = iota
	fieldPermits
	fieldAlephToken
	fieldSync
	fieldOwnerCandidate
	fieldPaused
	fieldRoyalties
	fieldLedger
	fieldOperator
	fieldOperatorForAll
	fieldTokenMetadata
	fieldMetadata
	numFields
)

// Part is the share of the sales of a token paid to an account.
type Part struct {
	Account tezos.Address
	Value   tezos.Nat
}

func PartType() micheline.Prim {
	return micheline.TypePair(
		micheline.TypeAnno(micheline.T_ADDRESS, "%part_account"),
		micheline.TypeAnno(micheline.T_NAT, "%part_value"),
	)
}

func (p Part) ToMich() micheline.Prim {
	return micheline.NewPair(p.Account.ToMich(), p.Value.ToMich())
}

func (p Part) Equal(o Part) bool { return micheline.Equal(p.ToMich(), o.ToMich()) }

func PartFromMich(m micheline.Prim) (Part, error) {
	var p Part
	fields, err := m.Flatten(2)
	if err != nil {
		return p, err
	}
	if p.Account, err = tezos.AddressFromMich(fields[0]); err != nil {
		return p, err
	}
	p.Value, err = tezos.NatFromMich(fields[1])
	return p, err
}

// OperatorForAllKey allows Operator to move every token of Owner.
type OperatorForAllKey struct {
	Operator tezos.Address
	Owner    tezos.Address
}

func OperatorForAllKeyType() micheline.Prim {
	return micheline.TypePair(micheline.TypeAddress(), micheline.TypeAddress())
}

func (k OperatorForAllKey) ToMich() micheline.Prim {
	return micheline.NewPair(k.Operator.ToMich(), k.Owner.ToMich())
}

// OperatorForAllUpdate adds (Left) or removes (Right) an operator of all
// the caller's tokens.
type OperatorForAllUpdate = tezos.Or[tezos.Address, tezos.Address]

func AddOperatorForAll(operator tezos.Address) OperatorForAllUpdate {
	return tezos.OrLeft[tezos.Address, tezos.Address](operator)
}

func RemoveOperatorForAll(operator tezos.Address) OperatorForAllUpdate {
	return tezos.OrRight[tezos.Address, tezos.Address](operator)
}

type NFT struct {
	contracts.Contract
}

func New(backend executor.Backend, scripts executor.ScriptLoader) *NFT {
	return &NFT{Contract: contracts.NewContract("nft", backend, scripts)}
}

// Deploy originates an empty collection owned by owner. Token payments go
// through alephToken and mints are announced on sync.
func (n *NFT) Deploy(ctx context.Context, owner, permits, alephToken, sync tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	storage := micheline.NewPair(
		owner.ToMich(),
		permits.ToMich(),
		alephToken.ToMich(),
		sync.ToMich(),
		micheline.None(),
		micheline.False(),
		micheline.NewSeq(),
		micheline.NewSeq(),
		micheline.NewSeq(),
		micheline.NewSeq(),
		micheline.NewSeq(),
		micheline.NewSeq(),
	)
	return n.Originate(ctx, storage, params)
}

func (n *NFT) DeclareOwnership(ctx context.Context, candidate tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "declare_ownership", candidate.ToMich(), params)
}

func (n *NFT) ClaimOwnership(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "claim_ownership", micheline.Unit(), params)
}

func (n *NFT) Pause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "pause", micheline.Unit(), params)
}

func (n *NFT) Unpause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "unpause", micheline.Unit(), params)
}

func (n *NFT) SetMetadata(ctx context.Context, key string, value tezos.Option[tezos.Bytes], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(micheline.NewString(key), tezos.OptionToMich(value, tezos.Bytes.ToMich))
	return n.Invoke(ctx, "set_metadata", arg, params)
}

func (n *NFT) UpdateOperators(ctx context.Context, updates []fa2.UpdateOperator, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "update_operators", fa2.UpdateOperatorsToMich(updates), params)
}

func (n *NFT) UpdateOperatorsForAll(ctx context.Context, updates []OperatorForAllUpdate, params executor.Parameters) (*executor.Receipt, error) {
	arg := tezos.ListToMich(updates, func(u OperatorForAllUpdate) micheline.Prim {
		return tezos.OrToMich(u, tezos.Address.ToMich, tezos.Address.ToMich)
	})
	return n.Invoke(ctx, "update_operators_for_all", arg, params)
}

func (n *NFT) Transfer(ctx context.Context, tps []fa2.TransferParam, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "transfer", fa2.TransferParamsToMich(tps), params)
}

func (n *NFT) TransferGasless(ctx context.Context, batches []fa2.GaslessParam, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "transfer_gasless", fa2.GaslessParamsToMich(batches), params)
}

// Mint creates tokenID for to with its token_info and royalties.
func (n *NFT) Mint(ctx context.Context, to tezos.Address, tokenID tezos.Nat, metadata []tezos.MapEntry[string, tezos.Bytes], royalties []Part, params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(
		to.ToMich(),
		tokenID.ToMich(),
		tezos.MapToMich(metadata, tezos.StringToMich, tezos.Bytes.ToMich),
		tezos.ListToMich(royalties, Part.ToMich),
	)
	return n.Invoke(ctx, "mint", arg, params)
}

func (n *NFT) MintParam(ctx context.Context, to tezos.Address, tokenID tezos.Nat, metadata []tezos.MapEntry[string, tezos.Bytes], royalties []Part, params executor.Parameters) (*executor.CallParameter, error) {
	arg := micheline.NewPair(
		to.ToMich(),
		tokenID.ToMich(),
		tezos.MapToMich(metadata, tezos.StringToMich, tezos.Bytes.ToMich),
		tezos.ListToMich(royalties, Part.ToMich),
	)
	return n.InvokeParameter(ctx, "mint", arg, params)
}

func (n *NFT) Burn(ctx context.Context, tokenID tezos.Nat, params executor.Parameters) (*executor.Receipt, error) {
	return n.Invoke(ctx, "burn", tokenID.ToMich(), params)
}

func (n *NFT) BalanceOf(ctx context.Context, reqs []fa2.BalanceOfRequest, params executor.Parameters) ([]fa2.BalanceOfResponse, error) {
	res, err := n.View(ctx, "balance_of", fa2.BalanceOfRequestsToMich(reqs), params)
	if err != nil {
		return nil, err
	}
	return fa2.BalanceOfResponsesFromMich(res)
}

func (n *NFT) addressField(ctx context.Context, i int) (tezos.Address, error) {
	f, err := n.StorageField(ctx, i, numFields)
	if err != nil {
		return tezos.ZeroAddress, err
	}
	return tezos.AddressFromMich(f)
}

func (n *NFT) GetOwner(ctx context.Context) (tezos.Address, error) {
	return n.addressField(ctx, fieldOwner)
}

func (n *NFT) GetPermits(ctx context.Context) (tezos.Address, error) {
	return n.addressField(ctx, fieldPermits)
}

func (n *NFT) GetAlephToken(ctx context.Context) (tezos.Address, error) {
	return n.addressField(ctx, fieldAlephToken)
}

func (n *NFT) GetSync(ctx context.Context) (tezos.Address, error) {
	return n.addressField(ctx, fieldSync)
}

func (n *NFT) GetPaused(ctx context.Context) (bool, error) {
	f, err := n.StorageField(ctx, fieldPaused, numFields)
	if err != nil {
		return false, err
	}
	return f.GetBool()
}

// GetLedgerValue returns the owner of tokenID.
func (n *NFT) GetLedgerValue(ctx context.Context, tokenID tezos.Nat) (tezos.Address, bool, error) {
	v, ok, err := n.BigMapValue(ctx, fieldLedger, numFields, tokenID.ToMich(), micheline.TypeNat())
	if err != nil || !ok {
		return tezos.ZeroAddress, false, err
	}
	owner, err := tezos.AddressFromMich(v)
	return owner, err == nil, err
}

func (n *NFT) GetRoyaltiesValue(ctx context.Context, tokenID tezos.Nat) ([]Part, bool, error) {
	v, ok, err := n.BigMapValue(ctx, fieldRoyalties, numFields, tokenID.ToMich(), micheline.TypeNat())
	if err != nil || !ok {
		return nil, false, err
	}
	parts, err := tezos.ListFromMich(v, PartFromMich)
	return parts, err == nil, err
}

func (n *NFT) HasOperatorValue(ctx context.Context, key fa2.OperatorKey) (bool, error) {
	_, ok, err := n.BigMapValue(ctx, fieldOperator, numFields, key.ToMich(), fa2.OperatorKeyType())
	return ok, err
}

func (n *NFT) HasOperatorForAllValue(ctx context.Context, key OperatorForAllKey) (bool, error) {
	_, ok, err := n.BigMapValue(ctx, fieldOperatorForAll, numFields, key.ToMich(), OperatorForAllKeyType())
	return ok, err
}

func (n *NFT) GetTokenMetadataValue(ctx context.Context, tokenID tezos.Nat) ([]tezos.MapEntry[string, tezos.Bytes], bool, error) {
	v, ok, err := n.BigMapValue(ctx, fieldTokenMetadata, numFields, tokenID.ToMich(), micheline.TypeNat())
	if err != nil || !ok {
		return nil, false, err
	}
	info, err := v.Get(1)
	if err != nil {
		return nil, false, err
	}
	entries, err := tezos.MapFromMich(info, tezos.StringFromMich, tezos.BytesFromMich)
	return entries, err == nil, err
}

func (n *NFT) GetMetadataValue(ctx context.Context, key string) (tezos.Bytes, bool, error) {
	return contracts.MetadataValue(ctx, &n.Contract, fieldMetadata, numFields, key)
}
