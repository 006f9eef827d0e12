package permits

import (
	"github.com/dz0nda/quartz-tezos-contracts/contracts/fa2"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

// Error values raised by the permits contract.
var (
	ErrInvalidCaller      = micheline.NewString("INVALID_CALLER")
	ErrContractPaused     = micheline.NewString("CONTRACT_PAUSED")
	ErrExpiryTooBig       = micheline.NewString("EXPIRY_TOO_BIG")
	ErrPermitNotFound     = micheline.NewString("PERMIT_NOT_FOUND")
	ErrPermitExpired      = micheline.NewString("PERMIT_EXPIRED")
	ErrPermitUserNotFound = micheline.NewString("PERMIT_USER_NOT_FOUND")
	ErrNotConsumer        = micheline.NewString("CALLER_NOT_CONSUMER")
)

// MissignedError is the failure of a permit whose signature does not match
// the permit data.
func MissignedError(data tezos.Bytes) micheline.Prim {
	return micheline.NewPair(micheline.NewString("MISSIGNED"), data.ToMich())
}

// DupPermitError is the failure of a permit registered twice.
func DupPermitError(packed tezos.Bytes) micheline.Prim {
	return micheline.NewPair(micheline.NewString("DUP_PERMIT"), packed.Blake2b().ToMich())
}

var (
	// WrongSig is a well formed signature that matches no permit.
	WrongSig = tezos.NewPrivateKeyFromSeed(make([]byte, 32)).Sign([]byte("wrong signature"))
	// WrongPackedTransferParams stands for transfer parameters nobody signed.
	WrongPackedTransferParams = tezos.MustParseBytes("9aabe91d035d02ffb550bb9ea6fe19970f6fb41b5e69459a60b1ae401192a2dc")
)

func permitDataType() micheline.Prim {
	return micheline.TypePair(
		micheline.TypePair(micheline.TypeAddress(), micheline.TypeChainID()),
		micheline.TypePair(micheline.TypeNat(), micheline.TypeBytes()),
	)
}

// PackedTransferParams packs a transfer batch the way the token contracts
// do before checking a permit.
func PackedTransferParams(tps []fa2.TransferParam) (tezos.Bytes, error) {
	b, err := tezos.Pack(fa2.TransferParamsToMich(tps), fa2.TransferParamsType())
	if err != nil {
		return nil, errors.Wrap(err, "could not pack transfer params")
	}
	return b, nil
}

// TransferPermitData returns the bytes a user signs to permit the transfer
// batch packed as packed: the permits contract, the chain, the permit
// counter of the user and the hash of the parameters.
func TransferPermitData(packed tezos.Bytes, permits tezos.Address, chainID tezos.ChainID, counter tezos.Nat) (tezos.Bytes, error) {
	data := micheline.NewPair(
		micheline.NewPair(permits.ToMich(), micheline.NewString(chainID.String())),
		micheline.NewPair(counter.ToMich(), packed.Blake2b().ToMich()),
	)
	b, err := tezos.Pack(data, permitDataType())
	if err != nil {
		return nil, errors.Wrap(err, "could not pack permit data")
	}
	return b, nil
}

// SignTransfer packs tps and signs the permit data with acc, as expected by
// permit, transfer_gasless and permit_transfer.
func SignTransfer(acc *tezos.Account, tps []fa2.TransferParam, permits tezos.Address, chainID tezos.ChainID, counter tezos.Nat) (packed tezos.Bytes, sig tezos.Signature, err error) {
	packed, err = PackedTransferParams(tps)
	if err != nil {
		return nil, sig, err
	}
	data, err := TransferPermitData(packed, permits, chainID, counter)
	if err != nil {
		return nil, sig, err
	}
	return packed, acc.Sign(data), nil
}
