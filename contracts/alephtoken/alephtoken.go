// Package alephtoken binds the aleph_token contract, a single asset FA2
// token with permit based transfers.
package alephtoken

import (
	"context"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/fa2"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
)

// TokenID is the only token of the contract.
var TokenID = tezos.NewNat(0)

// InitialSupply is credited to the owner at deployment.
var InitialSupply = tezos.MustParseNat("123000000000000")

// storage fields
const (
	fieldOwner = iota
	fieldPermits
	fieldOwnerCandidate
	fieldPaused
	fieldTokenMetadata
	fieldLedger
	fieldOperator
	fieldMetadata
	numFields
)

type AlephToken struct {
	contracts.Contract
}

func New(backend executor.Backend, scripts executor.ScriptLoader) *AlephToken {
	return &AlephToken{Contract: contracts.NewContract("aleph_token", backend, scripts)}
}

// Deploy originates the token owned by owner, consuming the permits of the
// permits contract. The owner holds the initial supply.
func (a *AlephToken) Deploy(ctx context.Context, owner, permits tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	tokenMetadata := micheline.NewSeq(micheline.Elt(TokenID.ToMich(), micheline.NewPair(TokenID.ToMich(), micheline.NewSeq())))
	ledger := micheline.NewSeq(micheline.Elt(owner.ToMich(), InitialSupply.ToMich()))
	storage := micheline.NewPair(
		owner.ToMich(),
		permits.ToMich(),
		micheline.None(),
		micheline.False(),
		tokenMetadata,
		ledger,
		micheline.NewSeq(),
		micheline.NewSeq(),
	)
	return a.Originate(ctx, storage, params)
}

func (a *AlephToken) DeclareOwnership(ctx context.Context, candidate tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "declare_ownership", candidate.ToMich(), params)
}

func (a *AlephToken) ClaimOwnership(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "claim_ownership", micheline.Unit(), params)
}

func (a *AlephToken) Pause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "pause", micheline.Unit(), params)
}

func (a *AlephToken) Unpause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "unpause", micheline.Unit(), params)
}

func (a *AlephToken) SetMetadata(ctx context.Context, key string, value tezos.Option[tezos.Bytes], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(micheline.NewString(key), tezos.OptionToMich(value, tezos.Bytes.ToMich))
	return a.Invoke(ctx, "set_metadata", arg, params)
}

// SetTokenMetadata replaces the TZIP-12 token_info of tokenID.
func (a *AlephToken) SetTokenMetadata(ctx context.Context, tokenID tezos.Nat, info []tezos.MapEntry[string, tezos.Bytes], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(tokenID.ToMich(), tezos.MapToMich(info, tezos.StringToMich, tezos.Bytes.ToMich))
	return a.Invoke(ctx, "set_token_metadata", arg, params)
}

func (a *AlephToken) UpdateOperators(ctx context.Context, updates []fa2.UpdateOperator, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "update_operators", fa2.UpdateOperatorsToMich(updates), params)
}

func (a *AlephToken) Transfer(ctx context.Context, tps []fa2.TransferParam, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "transfer", fa2.TransferParamsToMich(tps), params)
}

func (a *AlephToken) TransferParam(ctx context.Context, tps []fa2.TransferParam, params executor.Parameters) (*executor.CallParameter, error) {
	return a.InvokeParameter(ctx, "transfer", fa2.TransferParamsToMich(tps), params)
}

// TransferGasless runs transfer batches signed by their owners.
func (a *AlephToken) TransferGasless(ctx context.Context, batches []fa2.GaslessParam, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "transfer_gasless", fa2.GaslessParamsToMich(batches), params)
}

// PermitTransfer registers the permit, when given, and transfers in one
// operation. Without a permit the caller must own the tokens.
func (a *AlephToken) PermitTransfer(ctx context.Context, tps []fa2.TransferParam, permit tezos.Option[fa2.Permit], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(fa2.TransferParamsToMich(tps), fa2.PermitToMich(permit))
	return a.Invoke(ctx, "permit_transfer", arg, params)
}

// Mint credits amount tokens to owner. Owner only.
func (a *AlephToken) Mint(ctx context.Context, owner tezos.Address, amount tezos.Nat, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "mint", micheline.NewPair(owner.ToMich(), amount.ToMich()), params)
}

// Burn destroys amount tokens of the caller.
func (a *AlephToken) Burn(ctx context.Context, amount tezos.Nat, params executor.Parameters) (*executor.Receipt, error) {
	return a.Invoke(ctx, "burn", amount.ToMich(), params)
}

// BalanceOf runs the balance_of callback view.
func (a *AlephToken) BalanceOf(ctx context.Context, reqs []fa2.BalanceOfRequest, params executor.Parameters) ([]fa2.BalanceOfResponse, error) {
	res, err := a.View(ctx, "balance_of", fa2.BalanceOfRequestsToMich(reqs), params)
	if err != nil {
		return nil, err
	}
	return fa2.BalanceOfResponsesFromMich(res)
}

func (a *AlephToken) GetOwner(ctx context.Context) (tezos.Address, error) {
	f, err := a.StorageField(ctx, fieldOwner, numFields)
	if err != nil {
		return tezos.ZeroAddress, err
	}
	return tezos.AddressFromMich(f)
}

func (a *AlephToken) GetPermits(ctx context.Context) (tezos.Address, error) {
	f, err := a.StorageField(ctx, fieldPermits, numFields)
	if err != nil {
		return tezos.ZeroAddress, err
	}
	return tezos.AddressFromMich(f)
}

func (a *AlephToken) GetOwnerCandidate(ctx context.Context) (tezos.Option[tezos.Address], error) {
	f, err := a.StorageField(ctx, fieldOwnerCandidate, numFields)
	if err != nil {
		return tezos.None[tezos.Address](), err
	}
	return tezos.OptionFromMich(f, tezos.AddressFromMich)
}

func (a *AlephToken) GetPaused(ctx context.Context) (bool, error) {
	f, err := a.StorageField(ctx, fieldPaused, numFields)
	if err != nil {
		return false, err
	}
	return f.GetBool()
}

// GetLedgerValue returns the balance of owner, ok == false when owner holds
// no token.
func (a *AlephToken) GetLedgerValue(ctx context.Context, owner tezos.Address) (tezos.Nat, bool, error) {
	v, ok, err := a.BigMapValue(ctx, fieldLedger, numFields, owner.ToMich(), micheline.TypeAddress())
	if err != nil || !ok {
		return tezos.Nat{}, false, err
	}
	n, err := tezos.NatFromMich(v)
	return n, err == nil, err
}

func (a *AlephToken) HasLedgerValue(ctx context.Context, owner tezos.Address) (bool, error) {
	_, ok, err := a.GetLedgerValue(ctx, owner)
	return ok, err
}

func (a *AlephToken) HasOperatorValue(ctx context.Context, key fa2.OperatorKey) (bool, error) {
	_, ok, err := a.BigMapValue(ctx, fieldOperator, numFields, key.ToMich(), fa2.OperatorKeyType())
	return ok, err
}

// GetTokenMetadataValue returns the token_info map of tokenID.
func (a *AlephToken) GetTokenMetadataValue(ctx context.Context, tokenID tezos.Nat) ([]tezos.MapEntry[string, tezos.Bytes], bool, error) {
	v, ok, err := a.BigMapValue(ctx, fieldTokenMetadata, numFields, tokenID.ToMich(), micheline.TypeNat())
	if err != nil || !ok {
		return nil, false, err
	}
	fields, err := v.Flatten(2)
	if err != nil {
		return nil, false, err
	}
	info, err := tezos.MapFromMich(fields[1], tezos.StringFromMich, tezos.BytesFromMich)
	return info, err == nil, err
}

func (a *AlephToken) GetMetadataValue(ctx context.Context, key string) (tezos.Bytes, bool, error) {
	return contracts.MetadataValue(ctx, &a.Contract, fieldMetadata, numFields, key)
}

func (a *AlephToken) HasMetadataValue(ctx context.Context, key string) (bool, error) {
	_, ok, err := a.GetMetadataValue(ctx, key)
	return ok, err
}
