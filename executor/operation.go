package executor

import (
	"context"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// gas added on top of the simulated consumption
	gasSafetyMargin = 100
	// storage burnt for a newly allocated contract or account
	allocationSize = 257
	minimalFee     = 100
	// signature size, counted in the fee but not in the forged bytes
	signatureSize = 64
	revealGas     = 1000
)

// dummySignature is sent with simulations, which do not check it.
var dummySignature = tezos.Signature{Type: tezos.KeyTypeEd25519, Data: make([]byte, 64)}

// send runs the whole pipeline for a single manager operation: reveal if
// needed, simulate, set limits and fees, forge, sign, inject and wait.
func (e *Executor) send(ctx context.Context, params Parameters, op rpc.Content) (*Receipt, error) {
	acc := params.As
	if acc == nil {
		return nil, ErrNoAccount
	}
	lock := e.accountLock(acc.Address)
	lock.Lock()
	defer lock.Unlock()

	constants, err := e.Constants(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := e.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	counter, err := e.client.GetCounter(ctx, acc.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get counter of %s", acc.Address)
	}
	_, revealed, err := e.client.GetManagerKey(ctx, acc.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "could not get manager key of %s", acc.Address)
	}

	var contents []rpc.Content
	if !revealed {
		contents = append(contents, rpc.Content{
			Kind:      rpc.KindReveal,
			PublicKey: acc.Public.String(),
		})
	}
	contents = append(contents, op)

	gasPerOp := int64(constants.HardGasLimitPerOperation)
	if blockShare := int64(constants.HardGasLimitPerBlock) / int64(len(contents)); blockShare > 0 && blockShare < gasPerOp {
		gasPerOp = blockShare
	}
	for i := range contents {
		counter++
		contents[i].Source = acc.Address.String()
		contents[i].Counter = rpc.Int64(counter)
		contents[i].Fee = 0
		contents[i].GasLimit = rpc.Int64(gasPerOp)
		contents[i].StorageLimit = constants.HardStorageLimitPerOperation
	}

	head, err := e.client.GetHead(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not get head")
	}

	simulated, err := e.client.RunOperation(ctx, chainID, rpc.Operation{
		Branch:    head.Hash,
		Contents:  contents,
		Signature: dummySignature.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "simulation failed")
	}
	if len(simulated) != len(contents) {
		return nil, errors.Errorf("simulation returned %d contents for %d operations", len(simulated), len(contents))
	}
	if err := batchError(simulated); err != nil {
		return nil, err
	}
	for i, res := range simulated {
		setLimits(&contents[i], res, params)
	}

	forged, err := e.setFees(ctx, head.Hash, contents, params)
	if err != nil {
		return nil, err
	}

	sig := acc.Key.SignOperation(forged)
	signed := append(forged, sig.Data...)

	hash, err := e.client.Inject(ctx, signed)
	if err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) && len(rpcErr.Errors) > 0 {
			return nil, resultError(op.Kind, rpcErr.Errors)
		}
		return nil, errors.Wrap(err, "injection failed")
	}
	log.Debug().Str("hash", hash.String()).Str("kind", op.Kind).Str("source", acc.Address.String()).Msg("operation injected")

	receipt, err := e.waitInclusion(ctx, hash, head.Level, constants.BlockTime())
	if err != nil {
		return nil, err
	}
	last := contents[len(contents)-1]
	receipt.Fee = tezos.Tez(last.Fee)
	receipt.GasLimit = int64(last.GasLimit)
	receipt.StorageLimit = int64(last.StorageLimit)
	log.Info().Str("hash", hash.String()).Int64("level", receipt.Level).Str("kind", op.Kind).Msg("operation included")
	return receipt, nil
}

// batchError returns the error of a batch whose contents did not all apply.
// When one content fails, the node backtracks or skips the others without
// errors of their own, so the failure is reported for the content that
// carries errors.
func batchError(contents []rpc.Content) error {
	var (
		errs   []rpc.NodeError
		failed string
	)
	for _, c := range contents {
		if c.Metadata == nil || c.Metadata.OperationResult == nil {
			return errors.Errorf("%s result is missing", c.Kind)
		}
		res := c.Metadata.OperationResult
		if res.Status == rpc.StatusApplied {
			continue
		}
		cerrs := append([]rpc.NodeError(nil), res.Errors...)
		for _, internal := range c.Metadata.InternalOperationResults {
			if internal.Result != nil {
				cerrs = append(cerrs, internal.Result.Errors...)
			}
		}
		if len(cerrs) == 0 && failed != "" {
			continue
		}
		if failed == "" || (len(errs) == 0 && len(cerrs) > 0) {
			failed = c.Kind
		}
		errs = append(errs, cerrs...)
	}
	if failed == "" {
		return nil
	}
	return resultError(failed, errs)
}

func setLimits(c *rpc.Content, res rpc.Content, params Parameters) {
	gas := int64(res.Metadata.OperationResult.ConsumedMilligas)
	storage := int64(res.Metadata.OperationResult.PaidStorageSizeDiff)
	storage += allocationSize * int64(len(res.Metadata.OperationResult.OriginatedContracts))
	if res.Metadata.OperationResult.AllocatedContract {
		storage += allocationSize
	}
	for _, internal := range res.Metadata.InternalOperationResults {
		if internal.Result == nil {
			continue
		}
		gas += int64(internal.Result.ConsumedMilligas)
		storage += int64(internal.Result.PaidStorageSizeDiff)
		storage += allocationSize * int64(len(internal.Result.OriginatedContracts))
	}
	gasLimit := (gas+999)/1000 + gasSafetyMargin
	if c.Kind == rpc.KindReveal && gasLimit < revealGas {
		gasLimit = revealGas
	}
	c.GasLimit = rpc.Int64(gasLimit)
	c.StorageLimit = rpc.Int64(storage)

	if c.Kind == rpc.KindReveal {
		return
	}
	if params.GasLimit > 0 {
		c.GasLimit = rpc.Int64(params.GasLimit)
	}
	if params.StorageLimit > 0 {
		c.StorageLimit = rpc.Int64(params.StorageLimit)
	}
}

// setFees assigns the minimal fee to each content: 100 mutez plus 0.1 mutez
// per gas unit plus 1 mutez per byte, and returns the forged operation.
func (e *Executor) setFees(ctx context.Context, branch tezos.BlockHash, contents []rpc.Content, params Parameters) ([]byte, error) {
	forged, err := e.client.ForgeOperation(ctx, branch, contents)
	if err != nil {
		return nil, errors.Wrap(err, "could not forge operation")
	}
	size := int64(len(forged) + signatureSize)
	share := (size + int64(len(contents)) - 1) / int64(len(contents))
	for i := range contents {
		fee := minimalFee + (int64(contents[i].GasLimit)+9)/10 + share + e.FeeMargin.Mutez()
		if params.Fee > 0 && contents[i].Kind != rpc.KindReveal {
			fee = params.Fee.Mutez()
		}
		contents[i].Fee = rpc.Int64(fee)
	}
	forged, err = e.client.ForgeOperation(ctx, branch, contents)
	if err != nil {
		return nil, errors.Wrap(err, "could not forge operation")
	}
	return forged, nil
}

// WaitInclusion waits for the operation hash to show up in a block above
// level. It resumes a wait that ended with an *InclusionError.
func (e *Executor) WaitInclusion(ctx context.Context, hash tezos.OperationHash, level int64) (*Receipt, error) {
	constants, err := e.Constants(ctx)
	if err != nil {
		return nil, err
	}
	return e.waitInclusion(ctx, hash, level, constants.BlockTime())
}

// waitInclusion polls blocks above level until the operation shows up.
func (e *Executor) waitInclusion(ctx context.Context, hash tezos.OperationHash, level int64, blockTime time.Duration) (*Receipt, error) {
	interval := e.PollInterval
	if interval <= 0 {
		interval = blockTime / 2
	}
	if interval <= 0 {
		interval = time.Second
	}
	maxWait := e.MaxWaitBlocks
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitBlocks
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	next := level + 1
	for next <= level+maxWait {
		head, err := e.client.GetHead(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "could not get head")
		}
		for ; next <= head.Level && next <= level+maxWait; next++ {
			block, err := e.client.GetBlock(ctx, rpc.BlockLevel(next))
			if err != nil {
				return nil, errors.Wrapf(err, "could not get block %d", next)
			}
			if receipt, found, err := findOperation(block, hash); found || err != nil {
				return receipt, err
			}
		}
		if next > level+maxWait {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return nil, &InclusionError{Hash: hash, Level: next - 1, Blocks: maxWait}
}

func findOperation(block *rpc.Block, hash tezos.OperationHash) (*Receipt, bool, error) {
	for _, op := range block.ManagerOperations() {
		if op.Hash == nil || *op.Hash != hash {
			continue
		}
		if err := batchError(op.Contents); err != nil {
			return nil, true, err
		}
		receipt := &Receipt{Hash: hash, Block: block.Hash, Level: block.Header.Level}
		for _, c := range op.Contents {
			res := c.Metadata.OperationResult
			receipt.ConsumedGas += int64(res.ConsumedMilligas) / 1000
			for _, kt := range res.OriginatedContracts {
				addr, err := tezos.ParseAddress(kt)
				if err != nil {
					return nil, true, err
				}
				receipt.Originated = append(receipt.Originated, addr)
			}
			events, err := ExtractEvents(c)
			if err != nil {
				return nil, true, err
			}
			receipt.Events = append(receipt.Events, events...)
		}
		return receipt, true, nil
	}
	return nil, false, nil
}

// ExtractEvents returns the applied events emitted by the contracts called
// in c.
func ExtractEvents(c rpc.Content) ([]Event, error) {
	if c.Metadata == nil {
		return nil, nil
	}
	var events []Event
	for _, internal := range c.Metadata.InternalOperationResults {
		if internal.Kind != rpc.KindEvent {
			continue
		}
		if internal.Result != nil && internal.Result.Status != rpc.StatusApplied {
			continue
		}
		src, err := tezos.ParseAddress(internal.Source)
		if err != nil {
			return nil, errors.Wrap(err, "invalid event source")
		}
		ev := Event{Source: src, Tag: internal.Tag}
		if internal.Type != nil {
			ev.Type = *internal.Type
		}
		if internal.Payload != nil {
			ev.Payload = *internal.Payload
		} else {
			ev.Payload = micheline.Unit()
		}
		events = append(events, ev)
	}
	return events, nil
}
